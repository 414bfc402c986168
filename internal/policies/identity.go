package policies

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SameIdentity compara dois identificadores de identidade por VALOR,
// tolerando diferenças de representação: um id numérico que fez round-trip
// pelo storage como texto ("5") ainda é igual à sua forma numérica (5).
// Isso é requisito de correção, não detalhe: camadas de persistência e
// decoders JSON mudam o tipo do id no caminho.
func SameIdentity(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ca, ok := canonicalID(a)
	if !ok {
		return false
	}
	cb, ok := canonicalID(b)
	if !ok {
		return false
	}
	return ca == cb
}

// canonicalID reduz um id à sua forma canônica em string. Ids inteiros (e
// strings que representam inteiros) normalizam para decimal; o resto
// compara textualmente. Ids vazios nunca casam com nada.
func canonicalID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return "", false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		return s, true
	case int:
		return strconv.FormatInt(int64(id), 10), true
	case int8:
		return strconv.FormatInt(int64(id), 10), true
	case int16:
		return strconv.FormatInt(int64(id), 10), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case uint:
		return strconv.FormatUint(uint64(id), 10), true
	case uint8:
		return strconv.FormatUint(uint64(id), 10), true
	case uint16:
		return strconv.FormatUint(uint64(id), 10), true
	case uint32:
		return strconv.FormatUint(uint64(id), 10), true
	case uint64:
		return strconv.FormatUint(id, 10), true
	case float32:
		return canonicalFloat(float64(id))
	case float64:
		// json.Unmarshal entrega números como float64
		return canonicalFloat(id)
	case fmt.Stringer:
		return canonicalID(id.String())
	default:
		s := fmt.Sprintf("%v", v)
		if s == "" {
			return "", false
		}
		return s, true
	}
}

func canonicalFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}
