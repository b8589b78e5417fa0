package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/bslcheck/pkg/semantic"
)

func TestLiteralType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want semantic.TypeKind
	}{
		{"Истина", semantic.TypeBoolean},
		{"ложь", semantic.TypeBoolean},
		{"true", semantic.TypeBoolean},
		{"Null", semantic.TypeNull},
		{"Неопределено", semantic.TypeUndefined},
		{"42", semantic.TypeNumber},
		{"3.14", semantic.TypeNumber},
		{"привет", semantic.TypeString},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, semantic.LiteralType(tc.text).Kind, "literal %q", tc.text)
	}
}

func TestBinaryResult(t *testing.T) {
	t.Parallel()

	num := semantic.LiteralType("1")
	str := semantic.LiteralType("с")

	assert.Equal(t, semantic.TypeNumber, semantic.BinaryResult(num, "+", num).Kind)
	assert.Equal(t, semantic.TypeString, semantic.BinaryResult(str, "+", str).Kind)
	assert.Equal(t, semantic.TypeUnknown, semantic.BinaryResult(num, "+", str).Kind)
	assert.Equal(t, semantic.TypeBoolean, semantic.BinaryResult(num, "<", num).Kind)
	assert.Equal(t, semantic.TypeBoolean, semantic.BinaryResult(num, "И", num).Kind)
	assert.Equal(t, semantic.TypeUnknown, semantic.BinaryResult(num, "?", num).Kind)
}

func TestUnaryResult(t *testing.T) {
	t.Parallel()

	num := semantic.LiteralType("1")

	assert.Equal(t, semantic.TypeBoolean, semantic.UnaryResult("НЕ", num).Kind)
	assert.Equal(t, semantic.TypeNumber, semantic.UnaryResult("-", num).Kind)
}

func TestCatalogParse(t *testing.T) {
	t.Parallel()

	c := semantic.BuiltinCatalog()
	err := c.ParseCatalog([]byte(`
types:
  ТаблицаЗначений:
    methods: [Добавить, Очистить]
    properties: [Колонки]
`))

	assert.NoError(t, err)
	assert.True(t, c.HasMethod("ТаблицаЗначений", "Добавить"))
	assert.True(t, c.HasProperty("ТаблицаЗначений", "Колонки"))
	assert.True(t, c.HasMethod("Массив", "Добавить"))
	assert.False(t, c.HasMethod("Массив", "Чужой"))
}
