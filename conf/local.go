package conf

type Local struct {
	ApiPrefix string `validate:"required"`
}
