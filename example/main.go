package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dreamph/sheetimport"
	"github.com/go-playground/validator/v10"
)

type Product struct {
	Code   string    `excel:"Code"   validate:"required"`
	Name   string    `col:"2"        validate:"required"`
	Price  float64   `excelcol:"C"   validate:"required,gt=0"`
	Active bool      `excel:"Active"`
	Since  time.Time `excel:"Since"  fmt:"2006-01-02" validate:"pastdate"`
}

func main() {
	v := validator.New()

	res, err := sheetimport.ImportFile[Product](
		context.Background(),
		"products.xlsx",
		sheetimport.Sheet("Products"),
		sheetimport.MaxSizeMiB(5),
		sheetimport.ErrorThreshold(50),
		sheetimport.UseValidator(v),
	)

	var rowErrs sheetimport.ValidationErrors
	if errors.As(err, &rowErrs) {
		fmt.Println("== ROW ERRORS ==")
		for _, e := range rowErrs {
			fmt.Printf("row=%d kind=%v msg=%s\n", e.Row, e.Kind, e.Message)
		}
		return
	}
	if err != nil {
		log.Fatalf("import error: %v", err)
	}

	fmt.Printf("== %s: %d VALID ROWS ==\n", res.FileName, res.RowCount)
	for _, rec := range res.Records {
		fmt.Printf("row=%d id=%s product=%+v\n", rec.Row, rec.ID, rec.Value)
	}
}
