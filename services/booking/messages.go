package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Reply languages.
const (
	LangBulgarian = "bg"
	LangEnglish   = "en"
	LangNorwegian = "nb"
)

var norwegianHints = []string{
	"hei", "jeg", "kl", "i morgen", "i dag", "takk", "timen", "frisør", "klipp", "skjegg", "ja", "gjerne",
}

// DetectLanguage guesses the reply language from a user message.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	for _, r := range lower {
		if unicode.Is(unicode.Cyrillic, r) {
			return LangBulgarian
		}
	}
	if strings.ContainsAny(lower, "æøå") {
		return LangNorwegian
	}
	padded := " " + strings.Join(strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "
	for _, hint := range norwegianHints {
		if strings.Contains(padded, " "+hint+" ") {
			return LangNorwegian
		}
	}
	return LangEnglish
}

type phrasebook struct {
	fieldNames     map[string]string
	missing        string
	unknownService string
	clarify        string
	unknownStaff   string
	restricted     string
	notWorking     string
	workingHours   string
	confirmRequest string
	confirmed      string
	funFact        string
	commitFailed   string
	expired        string
	apology        string
	reminder       string
	weekdays       [7]string
	momentLayout   string
}

var phrasebooks = map[string]phrasebook{
	LangBulgarian: {
		fieldNames:     map[string]string{"service": "услуга", "datetime": "дата и час", "barber": "бръснар"},
		missing:        "За да запазя час, ми трябва още: %s.",
		unknownService: "Не намерих услуга „%s“. Предлагаме:\n%s",
		clarify:        "Не успях да разбера кога е „%s“. Напиши ден и час, например „утре в 11“ или „петък 15:30“.",
		unknownStaff:   "Не намерих бръснар с име „%s“. При кого да те запиша?",
		restricted:     "%s не прави %s. Искаш ли друг бръснар?",
		notWorking:     "За съжаление %s не е свободен %s.%s Искаш ли друг час?",
		workingHours:   " Работи %s, %s-%s.",
		confirmRequest: "Да запазя ли %s при %s за %s? Отговори „да“ за потвърждение.",
		confirmed:      "Готово! Записах те за %s при %s за %s.",
		funFact:        "\nЗабавен факт: %s",
		commitFailed:   "Съжалявам, не успях да запазя часа в календара. Моля, избери друг час.",
		expired:        "Заявката ти изтече. Кажи ми отново услуга, ден и час, и бръснар.",
		apology:        "Съжалявам, в момента имам технически проблем. Опитай отново след малко.",
		reminder:       "Напомняне: %s при %s за %s.",
		weekdays:       [7]string{"неделя", "понеделник", "вторник", "сряда", "четвъртък", "петък", "събота"},
		momentLayout:   "%[1]s, %[2]s в %[3]s",
	},
	LangNorwegian: {
		fieldNames:     map[string]string{"service": "tjeneste", "datetime": "dato og tid", "barber": "frisør"},
		missing:        "For å bestille trenger jeg fortsatt: %s.",
		unknownService: "Jeg fant ikke tjenesten «%s». Vi tilbyr:\n%s",
		clarify:        "Jeg skjønte ikke tidspunktet «%s». Skriv dag og klokkeslett, for eksempel «i morgen kl 11» eller «fredag 15:30».",
		unknownStaff:   "Jeg fant ingen frisør som heter «%s». Hvem vil du ha?",
		restricted:     "%s tar ikke %s. Vil du ha en annen frisør?",
		notWorking:     "Dessverre er %s ikke ledig %s.%s Passer et annet tidspunkt?",
		workingHours:   " Jobber %s, %s-%s.",
		confirmRequest: "Skal jeg bestille %s hos %s %s? Svar «ja» for å bekrefte.",
		confirmed:      "Ferdig! Du er booket for %s hos %s %s.",
		funFact:        "\nMorsom fakta: %s",
		commitFailed:   "Beklager, jeg fikk ikke lagt inn timen i kalenderen. Velg gjerne et annet tidspunkt.",
		expired:        "Forespørselen har gått ut. Si igjen tjeneste, tidspunkt og frisør.",
		apology:        "Beklager, jeg har tekniske problemer akkurat nå. Prøv igjen om litt.",
		reminder:       "Påminnelse: %s hos %s %s.",
		weekdays:       [7]string{"søndag", "mandag", "tirsdag", "onsdag", "torsdag", "fredag", "lørdag"},
		momentLayout:   "%[1]s %[2]s kl. %[3]s",
	},
	LangEnglish: {
		fieldNames:     map[string]string{"service": "service", "datetime": "date and time", "barber": "barber"},
		missing:        "To book you in I still need: %s.",
		unknownService: "I couldn't find the service \"%s\". We offer:\n%s",
		clarify:        "I couldn't work out when \"%s\" is. Please give a day and time, for example \"tomorrow at 11\" or \"Friday 15:30\".",
		unknownStaff:   "I couldn't find a barber called \"%s\". Who would you like?",
		restricted:     "%s doesn't do %s. Would you like another barber?",
		notWorking:     "Sorry, %s isn't available on %s.%s Would another time work?",
		workingHours:   " Working days: %s, %s-%s.",
		confirmRequest: "Shall I book %s with %s on %s? Reply \"yes\" to confirm.",
		confirmed:      "Done! You're booked for %s with %s on %s.",
		funFact:        "\nFun fact: %s",
		commitFailed:   "Sorry, I couldn't put the booking in the calendar. Please pick another time.",
		expired:        "That booking request has expired. Please tell me the service, time and barber again.",
		apology:        "Sorry, I'm having technical trouble right now. Please try again in a moment.",
		reminder:       "Reminder: %s with %s on %s.",
		weekdays:       [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		momentLayout:   "%[1]s, %[2]s at %[3]s",
	},
}

func book(lang string) phrasebook {
	if pb, ok := phrasebooks[lang]; ok {
		return pb
	}
	return phrasebooks[LangEnglish]
}

// FormatMoment renders t for humans, e.g. "вторник, 11.11.2025 в 11:00".
func FormatMoment(lang string, t time.Time) string {
	pb := book(lang)
	return fmt.Sprintf(pb.momentLayout, pb.weekdays[t.Weekday()], t.Format("02.01.2006"), t.Format("15:04"))
}

// ReminderText is the Messenger text of an appointment reminder.
func ReminderText(lang, service, barber string, start time.Time) string {
	return fmt.Sprintf(book(lang).reminder, service, barber, FormatMoment(lang, start))
}

func missingText(lang string, fields []string) string {
	pb := book(lang)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = pb.fieldNames[f]
	}
	return fmt.Sprintf(pb.missing, strings.Join(names, ", "))
}
