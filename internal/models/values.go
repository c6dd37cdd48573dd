package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NotAvailable is how unknown inputs and non-computable ratios render in text.
const NotAvailable = "N/A"

// Num is an upstream numeric field that may be absent. An absent value is
// never treated as zero.
type Num struct {
	Value float64
	Valid bool
}

func Known(v float64) Num {
	return Num{Value: v, Valid: true}
}

// Positive returns the value when it is known and strictly greater than zero.
func (n Num) Positive() (float64, bool) {
	if !n.Valid || n.Value <= 0 {
		return 0, false
	}
	return n.Value, true
}

func (n Num) String() string {
	if !n.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Num) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Num{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Known(v)
	return nil
}

// Ratio is a derived value. A Ratio that is not Computable carries the
// "not computable" marker and serializes as "N/A".
type Ratio struct {
	Value      float64
	Computable bool
}

func RatioOf(v float64) Ratio {
	return Ratio{Value: v, Computable: true}
}

func NotComputable() Ratio {
	return Ratio{}
}

func (r Ratio) String() string {
	if !r.Computable {
		return NotAvailable
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Computable {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != NotAvailable {
			return fmt.Errorf("ratio: unexpected marker %q", s)
		}
		*r = NotComputable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = RatioOf(v)
	return nil
}

type Verdict string

const (
	VerdictBuy  Verdict = "Buy"
	VerdictHold Verdict = "Hold"
	VerdictSell Verdict = "Sell"
)

// ParseVerdict accepts buy/hold/sell in any case, surrounded by whitespace
// or simple punctuation.
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToLower(strings.Trim(s, " \t\r\n*.:;!\"'")) {
	case "buy":
		return VerdictBuy, true
	case "hold":
		return VerdictHold, true
	case "sell":
		return VerdictSell, true
	}
	return "", false
}

func (v Verdict) Valid() bool {
	return v == VerdictBuy || v == VerdictHold || v == VerdictSell
}
