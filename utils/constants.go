// File: utils/constants.go
package utils

// ConversationPrefix is the prefix used for Redis conversation keys.
const ConversationPrefix = "barberbot:conv:"

// DateTimeLayout is the "YYYY-MM-DD HH:MM" layout used in sheets and records.
const DateTimeLayout = "2006-01-02 15:04"

// DefaultClientName is used when the Messenger profile lookup fails.
const DefaultClientName = "Messenger клиент"
