// internal/database/seeder.go
package database

import (
	"context"

	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

type seedProvince struct {
	province   models.Province
	localities []models.Locality
}

func locality(id, name, provinceID string) models.Locality {
	return models.Locality{ID: id, Name: name, ProvinceID: provinceID}
}

var referenceData = []seedProvince{
	{
		province: models.Province{ID: "buenos-aires", Name: "Buenos Aires"},
		localities: []models.Locality{
			locality("tandil", "Tandil", "buenos-aires"),
			locality("azul", "Azul", "buenos-aires"),
			locality("olavarria", "Olavarría", "buenos-aires"),
			locality("ayacucho", "Ayacucho", "buenos-aires"),
			locality("general-villegas", "General Villegas", "buenos-aires"),
		},
	},
	{
		province: models.Province{ID: "cordoba", Name: "Córdoba"},
		localities: []models.Locality{
			locality("rio-cuarto", "Río Cuarto", "cordoba"),
			locality("villa-maria", "Villa María", "cordoba"),
			locality("laboulaye", "Laboulaye", "cordoba"),
		},
	},
	{
		province: models.Province{ID: "santa-fe", Name: "Santa Fe"},
		localities: []models.Locality{
			locality("rafaela", "Rafaela", "santa-fe"),
			locality("venado-tuerto", "Venado Tuerto", "santa-fe"),
			locality("reconquista", "Reconquista", "santa-fe"),
		},
	},
	{
		province: models.Province{ID: "entre-rios", Name: "Entre Ríos"},
		localities: []models.Locality{
			locality("gualeguaychu", "Gualeguaychú", "entre-rios"),
			locality("villaguay", "Villaguay", "entre-rios"),
		},
	},
	{
		province: models.Province{ID: "la-pampa", Name: "La Pampa"},
		localities: []models.Locality{
			locality("santa-rosa", "Santa Rosa", "la-pampa"),
			locality("general-pico", "General Pico", "la-pampa"),
		},
	},
	{
		province: models.Province{ID: "corrientes", Name: "Corrientes"},
		localities: []models.Locality{
			locality("mercedes", "Mercedes", "corrientes"),
			locality("curuzu-cuatia", "Curuzú Cuatiá", "corrientes"),
		},
	},
}

// SeedReferenceData ghi tỉnh và địa phương mặc định. Dữ liệu được upsert theo ID nên có thể chạy mỗi lần khởi động.
func SeedReferenceData(ctx context.Context, localities store.Localities, log logger.Logger) error {
	var count int
	for _, p := range referenceData {
		if err := localities.UpsertProvince(ctx, p.province); err != nil {
			return err
		}
		for _, l := range p.localities {
			if err := localities.Upsert(ctx, l); err != nil {
				return err
			}
			count++
		}
	}
	log.Info("reference data seeded", map[string]any{"provinces": len(referenceData), "localities": count})
	return nil
}
