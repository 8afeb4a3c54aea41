//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// NewSelfieInspector создаёт проверку-заглушку (без OpenCV).
func NewSelfieInspector() *SelfieInspector {
	return &SelfieInspector{Thresholds: DefaultThresholds()}
}

// Inspect без тега gocv проверка недоступна, селфи принимается как есть.
func (i *SelfieInspector) Inspect(ctx context.Context, imageData []byte) (*entity.SelfieReport, error) {
	_ = ctx
	_ = imageData
	return nil, port.ErrInspectorUnavailable
}

var _ port.SelfieInspector = (*SelfieInspector)(nil)
