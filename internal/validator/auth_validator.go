package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"sekolah/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	nisnPattern   = regexp.MustCompile(`^[0-9]{10}$`)
	strongPattern = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[0-9]`),
		regexp.MustCompile(`[@$!%*?&]`),
	}
)

// RequestValidatorはecho.Validatorの実装。
// 最初の1件で止めず、全フィールドのエラーをdetailsにまとめて返す。
type RequestValidator struct {
	v *validator.Validate
}

func New() *RequestValidator {
	v := validator.New()

	// エラーのフィールド名はjsonタグの名前にする
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 登録失敗はタグ名の打ち間違いなので起動時に落とす
	must(v.RegisterValidation("nisn", func(fl validator.FieldLevel) bool {
		return nisnPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	}))
	must(v.RegisterValidation("relationship", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "ayah", "ibu", "wali":
			return true
		}
		return false
	}))
	must(v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "student", "teacher", "parent", "admin", "super_admin":
			return true
		}
		return false
	}))

	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.BadRequest("Invalid request body")
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, message(fe))
	}
	return apperr.Validation(details)
}

// 小文字・大文字・数字・記号をそれぞれ1文字以上、8文字以上
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, re := range strongPattern {
		if !re.MatchString(s) {
			return false
		}
	}
	return true
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s harus diisi", field)
	case "email":
		return "Email tidak valid"
	case "nisn":
		return "NISN harus 10 digit angka"
	case "strongpw":
		return "Password minimal 8 karakter dan harus mengandung huruf besar, huruf kecil, angka, dan karakter spesial"
	case "relationship":
		return "Hubungan harus ayah, ibu, atau wali"
	case "role":
		return fmt.Sprintf("%s berisi role yang tidak dikenal", field)
	case "uuid":
		return fmt.Sprintf("%s harus berupa UUID", field)
	case "min":
		return fmt.Sprintf("%s minimal %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s maksimal %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s harus berformat tanggal (YYYY-MM-DD)", field)
	default:
		return fmt.Sprintf("%s tidak valid (%s)", field, fe.Tag())
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
