// internal/models/locality.go
package models

type Province struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

type Locality struct {
	ID         string `bson:"_id" json:"id"`
	Name       string `bson:"name" json:"name"`
	ProvinceID string `bson:"provinceID" json:"provinceID"`
}
