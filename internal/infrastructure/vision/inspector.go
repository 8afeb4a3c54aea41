//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// NewSelfieInspector создаёт проверку качества селфи на OpenCV.
func NewSelfieInspector() *SelfieInspector {
	return &SelfieInspector{Thresholds: DefaultThresholds()}
}

// Inspect проверяет размер, резкость, экспозицию и блики.
func (i *SelfieInspector) Inspect(ctx context.Context, imageData []byte) (*entity.SelfieReport, error) {
	_ = ctx
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	report := &entity.SelfieReport{ImageWidth: mat.Cols(), ImageHeight: mat.Rows()}
	if problem := i.Thresholds.checkSize(mat.Cols(), mat.Rows()); problem != "" {
		report.Problems = append(report.Problems, problem)
		return report, nil
	}

	// Приводим изображение к стандартному размеру для стабильных порогов.
	if mat.Cols() > i.Thresholds.MaxSide || mat.Rows() > i.Thresholds.MaxSide {
		scale := float64(i.Thresholds.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(int(float64(mat.Cols())*scale), int(float64(mat.Rows())*scale)), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	ratios, err := measure(mat)
	if err != nil {
		return nil, err
	}
	report.Problems = append(report.Problems, i.Thresholds.evaluate(ratios)...)
	return report, nil
}

func measure(mat gocv.Mat) (qualityRatios, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, 250, 255, gocv.ThresholdBinary)

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return qualityRatios{}, errors.New("invalid hsv channels")
	}

	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)

	return qualityRatios{
		Edge:         ratioOfMask(edges),
		Overexposed:  ratioOfMask(bright),
		Underexposed: ratioOfMask(dark),
		Glare:        ratioOfMask(glare),
	}, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), fmt.Errorf("decode image: %w", errors.Join(err, errors.New("empty image")))
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

var _ port.SelfieInspector = (*SelfieInspector)(nil)
