package solver

import (
	"bottle/model"
)

// Compact push form of the temperature field: temperatures quantised to
// 0.1 ℃ and delta-encoded in cell order. Neighboring cells differ by
// fractions of a degree most of the session, so the delta stream compresses
// well downstream and the websocket payload stays small on large grids.

type EncodedField struct {
	Start  int32   `json:"start"`
	Deltas []int16 `json:"deltas"`
}

func quantize(t float32) int32 {
	if t >= 0 {
		return int32(t*10 + 0.5)
	}
	return int32(t*10 - 0.5)
}

// EncodeField is safe for any committed field: the clamp envelope keeps every
// quantised step within int16.
func EncodeField(data *model.FieldData) EncodedField {
	if len(data.Cells) == 0 {
		return EncodedField{}
	}
	enc := EncodedField{
		Start:  quantize(data.Cells[0].Temperature),
		Deltas: make([]int16, len(data.Cells)-1),
	}
	prev := enc.Start
	for i := 1; i < len(data.Cells); i++ {
		q := quantize(data.Cells[i].Temperature)
		enc.Deltas[i-1] = int16(q - prev)
		prev = q
	}
	return enc
}

// DecodeField restores the quantised temperatures in cell order.
func DecodeField(enc EncodedField) []float32 {
	res := make([]float32, 0, len(enc.Deltas)+1)
	cur := enc.Start
	res = append(res, float32(cur)/10)
	for _, d := range enc.Deltas {
		cur += int32(d)
		res = append(res, float32(cur)/10)
	}
	return res
}
