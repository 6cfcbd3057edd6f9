package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"barberbot/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ScheduleReader is the part of the schedule sheet the prompt needs.
type ScheduleReader interface {
	Catalog(ctx context.Context) (models.Catalog, error)
	WorkingWindows(ctx context.Context) ([]models.WorkingWindow, error)
}

// Prompt is a rendered system prompt plus the data it was rendered from.
type Prompt struct {
	System  string
	Catalog models.Catalog
	Staff   []models.WorkingWindow
}

type PromptBuilder struct {
	schedule ScheduleReader
	loc      *time.Location
	now      func() time.Time
}

func NewPromptBuilder(schedule ScheduleReader, loc *time.Location) *PromptBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &PromptBuilder{schedule: schedule, loc: loc, now: time.Now}
}

// Build reads the catalog and the staff table concurrently and renders the
// system prompt.
func (b *PromptBuilder) Build(ctx context.Context) (Prompt, error) {
	var (
		catalog models.Catalog
		staff   []models.WorkingWindow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := b.schedule.Catalog(gctx)
		if err != nil {
			return fmt.Errorf("failed to read services: %w", err)
		}
		catalog = c
		return nil
	})
	g.Go(func() error {
		s, err := b.schedule.WorkingWindows(gctx)
		if err != nil {
			return fmt.Errorf("failed to read barbers: %w", err)
		}
		staff = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return Prompt{}, err
	}

	return Prompt{
		System:  RenderSystemPrompt(b.now().In(b.loc), catalog, staff),
		Catalog: catalog,
		Staff:   staff,
	}, nil
}

// RenderCatalog lists services as "- Haircut (350 NOK / 30 мин)", sorted by name.
func RenderCatalog(catalog models.Catalog) string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	title := cases.Title(language.Und)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		svc := catalog[k]
		lines = append(lines, fmt.Sprintf("- %s (%s NOK / %d мин)", title.String(svc.Name), svc.Price, svc.DurationMinutes))
	}
	return strings.Join(lines, "\n")
}

// RenderStaff lists barbers with their working days and hours.
func RenderStaff(staff []models.WorkingWindow) string {
	lines := make([]string, 0, len(staff))
	for _, w := range staff {
		line := fmt.Sprintf("- %s: %s, %s-%s", w.Name, w.Days, w.StartTime, w.EndTime)
		if w.RestrictedServices != "" {
			line += fmt.Sprintf(" (does not do: %s)", w.RestrictedServices)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderSystemPrompt builds the assistant persona and booking instructions.
func RenderSystemPrompt(now time.Time, catalog models.Catalog, staff []models.WorkingWindow) string {
	var sb strings.Builder
	sb.WriteString("You are SecretarBOT, a friendly, funny barber assistant.\n")
	fmt.Fprintf(&sb, "Current date and time: %s, %s (%s).\n",
		now.Format("Monday, 02 January 2006"), now.Format("15:04"), now.Location())
	sb.WriteString("Available services:\n")
	sb.WriteString(RenderCatalog(catalog))
	sb.WriteString("\nBarbers and working hours:\n")
	sb.WriteString(RenderStaff(staff))
	sb.WriteString(`

Your task:
- Talk naturally in the user's language (Bulgarian, English or Norwegian).
- Ask for the service, the date and time, and the barber.
- Keep the date and time exactly as the user said it ("утре в 11", "i morgen kl 14", "Monday 13:30"); do not convert it.
- Once the user has given all three, answer with a JSON object and nothing else:
  {"action":"create_booking","service":"подстригване","datetime":"утре в 11","barber":"Миро","notes":""}
- Never claim a booking is confirmed yourself; the system confirms it.`)
	return sb.String()
}
