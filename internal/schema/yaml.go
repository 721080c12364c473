package schema

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"sqlbase/internal/shared"
)

// LoadYAML читает определение схемы из YAML и проверяет его.
// Неизвестные ключи считаются ошибкой.
func LoadYAML(r io.Reader) (Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, shared.Newf(shared.KindSyntax, "empty schema document")
		}
		return Definition{}, shared.MarkKind(fmt.Errorf("failed to decode schema: %w", err), shared.KindSyntax)
	}

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}
