package models

import "github.com/uptrace/bun"

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	CategoryID   int64  `bun:"category_id,pk,autoincrement" json:"CategoryID"`
	CategoryName string `bun:"category_name,notnull,unique" json:"CategoryName"`
}
