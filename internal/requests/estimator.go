package requests

import (
	"context"

	"cattle-certification-api-server/internal/models"
)

// Estimation là kết quả ước lượng tuổi (năm), cân nặng (kg) và giống từ ảnh của lô.
type Estimation struct {
	Age    float64
	Weight float64
	Breed  string
}

type Estimator interface {
	Estimate(ctx context.Context, breed models.CattleBreed, image models.Upload) (Estimation, error)
}

// StaticEstimator trả về giá trị cố định theo giống khai báo, chưa phân tích ảnh.
type StaticEstimator struct{}

var staticEstimations = map[models.CattleBreed]Estimation{
	models.BreedAngus:    {Age: 2.3, Weight: 485, Breed: "Angus"},
	models.BreedHolstein: {Age: 3.1, Weight: 620, Breed: "Holstein"},
	models.BreedHereford: {Age: 1.8, Weight: 420, Breed: "Hereford"},
	models.BreedBrahman:  {Age: 2.7, Weight: 510, Breed: "Brahman"},
}

func (StaticEstimator) Estimate(_ context.Context, breed models.CattleBreed, _ models.Upload) (Estimation, error) {
	if e, ok := staticEstimations[breed]; ok {
		return e, nil
	}
	return Estimation{Age: 2.5, Weight: 475, Breed: "Mixed Breed"}, nil
}
