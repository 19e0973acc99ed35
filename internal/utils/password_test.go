package utils

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("manzana123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "manzana123", hash)

	assert.True(t, CheckPasswordHash("manzana123", hash))
	for _, wrong := range []string{"", "manzana124", "Manzana123", "manzana123 "} {
		assert.False(t, CheckPasswordHash(wrong, hash), wrong)
	}
}

func TestCheckPasswordHashWithoutHash(t *testing.T) {
	assert.False(t, CheckPasswordHash("anything", ""))
	assert.False(t, CheckPasswordHash("", ""))
	assert.False(t, CheckPasswordHash("anything", "not-a-bcrypt-hash"))
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"manzana1", "12345678", "pera 1234"}
	invalid := []string{
		"", "short1", "sindigitos", "a 1 b 2 c", "        1",
		strings.Repeat("a", MaxPasswordBytes) + "1",
		strings.Repeat("ñ", 36) + "1",
	}

	for _, p := range valid {
		assert.True(t, ValidatePassword(p), p)
	}
	for _, p := range invalid {
		assert.False(t, ValidatePassword(p), p)
	}
}

func TestValidatePasswordFitsBcrypt(t *testing.T) {
	longest := strings.Repeat("a", MaxPasswordBytes-1) + "1"
	require.True(t, ValidatePassword(longest))

	_, err := HashPassword(longest, bcrypt.MinCost)
	assert.NoError(t, err)
}

func TestValidatePersonName(t *testing.T) {
	valid := []string{"Ana", "José Pérez", "  Ñusta  "}
	invalid := []string{"", "A", "R2D2", "ana_maria", "  a "}

	for _, n := range valid {
		assert.True(t, ValidatePersonName(n), n)
	}
	for _, n := range invalid {
		assert.False(t, ValidatePersonName(n), n)
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+51 912345678"))
	assert.True(t, ValidatePhone("+51912345678"))
	assert.False(t, ValidatePhone("912345678"))
	assert.False(t, ValidatePhone("+51 812345678"))
	assert.False(t, ValidatePhone("+51 91234567"))
}

func TestEmailDomainAllowed(t *testing.T) {
	allowed := []string{"gmail.com", "hotmail.com", "outlook.com"}

	assert.True(t, EmailDomainAllowed("ana@gmail.com", allowed))
	assert.True(t, EmailDomainAllowed("ana@Outlook.com", allowed))
	assert.False(t, EmailDomainAllowed("ana@example.com", allowed))
	assert.False(t, EmailDomainAllowed("no-at-sign", allowed))
	assert.True(t, EmailDomainAllowed("ana@example.com", nil))

	assert.Equal(t, "ana@gmail.com", SanitizeEmail("  Ana@Gmail.COM "))
}

func TestRegisterValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type form struct {
		Name     string `validate:"personname"`
		Password string `validate:"password"`
		Phone    string `validate:"omitempty,phone"`
		City     string `validate:"notblank"`
	}

	assert.NoError(t, v.Struct(form{Name: "Ana", Password: "manzana1", City: "Lima"}))

	err := v.Struct(form{Name: "A1", Password: "short", Phone: "123", City: "  "})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)
}
