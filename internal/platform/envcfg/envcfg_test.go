package envcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name string `env:"KARTO_IAM_TEST_NAME"`
	Port int    `env:"KARTO_IAM_TEST_PORT"`
	On   bool   `env:"KARTO_IAM_TEST_ON"`
}

func TestLoad_PopulatesFieldsFromEnv(t *testing.T) {
	t.Setenv("KARTO_IAM_TEST_NAME", "hello")
	t.Setenv("KARTO_IAM_TEST_PORT", "9090")
	t.Setenv("KARTO_IAM_TEST_ON", "true")

	var s testStruct
	require.NoError(t, Load(&s))
	assert.Equal(t, "hello", s.Name)
	assert.Equal(t, 9090, s.Port)
	assert.True(t, s.On)
}

func TestLoad_RejectsUnrecognizedOption(t *testing.T) {
	t.Setenv("KARTO_IAM_TEST_NOT_A_FIELD", "x")

	var s testStruct
	err := Load(&s)
	assert.Error(t, err)
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	err := Load(testStruct{})
	assert.Error(t, err)
}

func TestLoad_IgnoresVariablesOutsidePrefix(t *testing.T) {
	t.Setenv("PATH_SOMETHING_UNRELATED", "x")

	var s testStruct
	assert.NoError(t, Load(&s))
}
