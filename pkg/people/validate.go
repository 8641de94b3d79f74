package people

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validateStruct(s any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate.Struct(s)
}
