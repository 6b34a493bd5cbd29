package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solarsys/core"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Sh0rt!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "has spaces 42", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "similar to email", pwd: "Ada@test.io1", attrs: []string{"Ada", "ada@test.io"}, want: pwdAttrSimTag},
		{name: "similar to name", pwd: "lovelace", attrs: []string{"Lovelace", "ada@test.io"}, want: pwdAttrSimTag},
		{name: "blank attrs ignored", pwd: "Sup3r-Nova!", attrs: []string{"", ""}},
		{name: "valid", pwd: "Sup3r-Nova!", attrs: []string{"Ada", "ada@test.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	err := ValidatePassword("1234567890")
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, []core.FieldError{{Field: "password", Error: pwdNotAllNumText}}, vErr.Fields)

	assert.NoError(t, ValidatePassword("Sup3r-Nova!", "Ada"))
}

func TestNewUser_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name     string
		nu       NewUser
		wantTags map[string]string // field: tag
		wantRole string
	}{
		{
			name:     "missing fields",
			wantTags: map[string]string{"name": "required", "email": "required", "password": "required"},
		},
		{
			name:     "invalid email & role",
			nu:       NewUser{Name: "Ada", Email: "ada", Password: "Sup3r-Nova!", Role: "admin"},
			wantTags: map[string]string{"email": "email", "role": "role"},
		},
		{
			name:     "weak password",
			nu:       NewUser{Name: "Ada", Email: "ada@test.io", Password: "12345678"},
			wantTags: map[string]string{"password": pwdNotAllNumTag},
		},
		{
			name:     "defaults to student",
			nu:       NewUser{Name: " Ada ", Email: " ADA@test.io ", Password: "Sup3r-Nova!"},
			wantRole: RoleStudent,
		},
		{
			name:     "teacher",
			nu:       NewUser{Name: "Grace", Email: "grace@test.io", Password: "Sup3r-Nova!", Role: " Teacher "},
			wantRole: RoleTeacher,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.wantTags == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, tt.nu.Role)
				assert.Equal(t, core.CleanString(tt.nu.Email, true), tt.nu.Email)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validation errors, got %v", err)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Tag()
			}
			assert.Equal(t, tt.wantTags, got)
		})
	}
}
