package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type elapsed struct {
	t   time.Time
	key string
}

func (v *elapsed) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddDuration(v.key, time.Since(v.t))
	return nil
}

// Elapsed returns a field that measures the time between its creation and
// the moment the entry is encoded. Create it when the cycle starts and
// pass it to the completion (or failure) log call.
func Elapsed(key string) zap.Field {
	return zap.Inline(&elapsed{
		t:   time.Now(),
		key: key,
	})
}
