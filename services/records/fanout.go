package records

import (
	"context"
	"errors"

	"barberbot/models"
	"barberbot/utils"

	"go.uber.org/zap"
)

type Recorder interface {
	Record(ctx context.Context, b models.Booking) error
}

// Named labels a recorder in logs.
type Named struct {
	Name     string
	Recorder Recorder
}

// FanOut writes to every recorder in turn. A failing recorder is logged and
// does not stop the others; the joined error is returned.
type FanOut struct {
	targets []Named
}

func NewFanOut(targets ...Named) *FanOut {
	return &FanOut{targets: targets}
}

func (f *FanOut) Record(ctx context.Context, b models.Booking) error {
	logger := utils.GetLogger()
	var errs []error
	for _, t := range f.targets {
		if err := t.Recorder.Record(ctx, b); err != nil {
			logger.Warn("Booking record failed",
				zap.String("recorder", t.Name),
				zap.String("bookingID", b.ID),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Debug("Booking recorded", zap.String("recorder", t.Name), zap.String("bookingID", b.ID))
	}
	return errors.Join(errs...)
}
