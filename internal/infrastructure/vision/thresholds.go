package vision

import "fmt"

// SelfieInspector проверяет, годится ли фото как селфи для BitID.
type SelfieInspector struct {
	Thresholds Thresholds
}

// Thresholds пороги качества
type Thresholds struct {
	MaxSide               int     // больше этого изображение уменьшается перед анализом
	MinImageSide          int     // минимальная сторона исходного изображения
	MinSharpnessEdgeRatio float64 // доля пикселей-границ, ниже которой фото размыто
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSide:               1024,
		MinImageSide:          400,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
	}
}

// qualityRatios доли пикселей по каждому признаку
type qualityRatios struct {
	Edge         float64
	Overexposed  float64
	Underexposed float64
	Glare        float64
}

func (t Thresholds) checkSize(width, height int) string {
	if width < t.MinImageSide || height < t.MinImageSide {
		return fmt.Sprintf("image is too small (%dx%d)", width, height)
	}
	return ""
}

// evaluate переводит измерения в понятные пользователю причины отказа.
func (t Thresholds) evaluate(r qualityRatios) []string {
	var problems []string
	if r.Edge < t.MinSharpnessEdgeRatio {
		problems = append(problems, "image is blurry")
	}
	if r.Overexposed > t.MaxOverexposedRatio {
		problems = append(problems, "image is overexposed")
	}
	if r.Underexposed > t.MaxUnderexposedRatio {
		problems = append(problems, "image is too dark")
	}
	if r.Glare > t.MaxGlareRatio {
		problems = append(problems, "too much glare")
	}
	return problems
}
