// Package validator checks candidate game records against a declarative
// field table. It never touches the store and never mutates its input.
package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// FieldType type attendu d'un champ
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeArray   FieldType = "array"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// description utilisée dans les messages "<champ> doit être ..."
func (t FieldType) description() string {
	switch t {
	case TypeString:
		return "une chaîne de caractères"
	case TypeArray:
		return "un tableau"
	case TypeNumber:
		return "un nombre"
	case TypeBoolean:
		return "un booléen"
	}
	return string(t)
}

// FieldRule règle de validation d'un champ et sa valeur par défaut.
// Default vaut nil pour les champs optionnels sans valeur (editeur...).
type FieldRule struct {
	Name      string
	Type      FieldType
	Required  bool
	Min       *float64
	Max       *float64
	MaxIsYear bool // borne haute = année civile courante
	MinLength int
	MinItems  int
	Default   interface{}
}

func bound(v float64) *float64 { return &v }

// Schema table des champs d'un jeu, dans l'ordre d'évaluation.
// C'est aussi la liste blanche des champs modifiables.
var Schema = []FieldRule{
	{Name: "titre", Type: TypeString, Required: true, MinLength: 1},
	{Name: "genre", Type: TypeArray, Required: true, MinItems: 1},
	{Name: "plateforme", Type: TypeArray, Required: true, MinItems: 1},
	{Name: "editeur", Type: TypeString},
	{Name: "developpeur", Type: TypeString},
	{Name: "annee_sortie", Type: TypeNumber, Min: bound(1970), MaxIsYear: true},
	{Name: "temps_jeu_heures", Type: TypeNumber, Min: bound(0), Default: 0.0},
	{Name: "termine", Type: TypeBoolean, Default: false},
	{Name: "favorite", Type: TypeBoolean, Default: false},
}

// Validate valide un payload. En mode mise à jour la présence des champs
// requis n'est pas exigée, mais les contrôles de type et de bornes
// s'appliquent à tout champ présent.
func Validate(payload map[string]interface{}, isUpdate bool) []string {
	return ValidateAt(payload, isUpdate, time.Now())
}

// ValidateAt variante de Validate avec une date de référence explicite
// pour la borne "année courante".
func ValidateAt(payload map[string]interface{}, isUpdate bool, now time.Time) []string {
	errs := []string{}
	for _, rule := range Schema {
		errs = append(errs, rule.check(payload, isUpdate, now)...)
	}
	return errs
}

func (r FieldRule) check(payload map[string]interface{}, isUpdate bool, now time.Time) []string {
	value, present := payload[r.Name]

	if r.Required {
		if !isUpdate && isBlank(value, present) {
			return []string{r.Name + " requis"}
		}
		// la colonne ne peut pas être vidée par une mise à jour
		if isUpdate && present && value == nil {
			return []string{r.Name + " requis"}
		}
	}

	if !present || value == nil {
		return nil
	}

	switch r.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return []string{r.typeError()}
		}
		if r.MinLength > 0 && len([]rune(strings.TrimSpace(s))) < r.MinLength {
			return []string{fmt.Sprintf("%s doit contenir au moins %d caractère(s)", r.Name, r.MinLength)}
		}

	case TypeArray:
		items, ok := AsStrings(value)
		if !ok {
			if isArray(value) {
				return []string{r.Name + " doit être un tableau de chaînes"}
			}
			return []string{r.typeError()}
		}
		if len(items) < r.MinItems {
			return []string{fmt.Sprintf("%s doit contenir au moins %d élément(s)", r.Name, r.MinItems)}
		}

	case TypeNumber:
		n, ok := AsNumber(value)
		if !ok {
			return []string{r.typeError()}
		}
		var errs []string
		if r.Min != nil && n < *r.Min {
			errs = append(errs, fmt.Sprintf("%s doit être ≥ %s", r.Name, formatNumber(*r.Min)))
		}
		if max, ok := r.max(now); ok && n > max {
			errs = append(errs, fmt.Sprintf("%s doit être ≤ %s", r.Name, formatNumber(max)))
		}
		return errs

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return []string{r.typeError()}
		}
	}

	return nil
}

func (r FieldRule) typeError() string {
	return fmt.Sprintf("%s doit être %s", r.Name, r.Type.description())
}

func (r FieldRule) max(now time.Time) (float64, bool) {
	if r.MaxIsYear {
		return float64(now.Year()), true
	}
	if r.Max != nil {
		return *r.Max, true
	}
	return 0, false
}

func isBlank(value interface{}, present bool) bool {
	if !present || value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

func isArray(value interface{}) bool {
	switch value.(type) {
	case []interface{}, []string:
		return true
	}
	return false
}

// AsStrings convertit un tableau JSON de chaînes
func AsStrings(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// AsNumber convertit une valeur numérique. NaN et ±Inf sont refusés.
func AsNumber(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
