// Package reconcile forces a structured verdict to agree with the sentiment
// keywords found in the free-text rationale that accompanies it.
//
// Policy:
//  1. exactly one distinct keyword (buy, hold, sell) in the rationale: that verdict wins
//  2. no keyword: the candidate verdict is kept
//  3. several distinct keywords: the first of them in Policy.Precedence wins
//     (Sell > Hold > Buy by default)
//
// Keywords are matched case-insensitively as whole words or their -s/-ing
// forms, so "selling" counts as sell while "household", "holdings", "buyer"
// and "buyback" do not. The rationale itself is never modified.
package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"equityscope/backend-go/internal/models"
)

var keywordPattern = regexp.MustCompile(`(?i)\b(buy|hold|sell)(?:s|ing)?\b`)

// ErrNoVerdict is returned when no verdict can be determined at all.
var ErrNoVerdict = errors.New("no verdict could be determined")

type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: %s", e.Reason)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrNoVerdict
}

type Policy struct {
	Precedence []models.Verdict
}

func DefaultPolicy() Policy {
	return Policy{Precedence: []models.Verdict{models.VerdictSell, models.VerdictHold, models.VerdictBuy}}
}

// ParsePrecedence reads a comma separated ordering such as "sell,hold,buy".
// Every verdict must appear exactly once.
func ParsePrecedence(raw string) (Policy, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultPolicy(), nil
	}
	parts := strings.Split(raw, ",")
	seen := make(map[models.Verdict]bool, len(parts))
	out := make([]models.Verdict, 0, len(parts))
	for _, p := range parts {
		v, ok := models.ParseVerdict(p)
		if !ok {
			return Policy{}, fmt.Errorf("precedence: unknown verdict %q", strings.TrimSpace(p))
		}
		if seen[v] {
			return Policy{}, fmt.Errorf("precedence: duplicate verdict %q", v)
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) != 3 {
		return Policy{}, fmt.Errorf("precedence: expected buy, hold and sell, got %d entries", len(out))
	}
	return Policy{Precedence: out}, nil
}

func (p Policy) String() string {
	parts := make([]string, len(p.Precedence))
	for i, v := range p.Precedence {
		parts[i] = string(v)
	}
	return strings.Join(parts, ">")
}

type Reconciler struct {
	policy Policy
}

func New(policy Policy) *Reconciler {
	if len(policy.Precedence) == 0 {
		policy = DefaultPolicy()
	}
	return &Reconciler{policy: policy}
}

func (r *Reconciler) Policy() Policy {
	return r.policy
}

// Precedence renders the tie-break order, e.g. "Sell>Hold>Buy".
func (r *Reconciler) Precedence() string { return r.policy.String() }

// Reconcile returns the verdict that agrees with rationale.
func (r *Reconciler) Reconcile(candidate models.Verdict, rationale string) (models.Verdict, error) {
	if strings.TrimSpace(rationale) == "" {
		return "", &ConsistencyError{Reason: "rationale is empty"}
	}

	found := Keywords(rationale)
	switch len(found) {
	case 0:
		if !candidate.Valid() {
			return "", &ConsistencyError{Reason: fmt.Sprintf("no keyword in rationale and candidate %q is not a verdict", candidate)}
		}
		return candidate, nil
	case 1:
		for v := range found {
			return v, nil
		}
	}

	for _, v := range r.policy.Precedence {
		if found[v] {
			return v, nil
		}
	}
	return "", &ConsistencyError{Reason: "precedence does not cover detected keywords"}
}

// Keywords reports the distinct verdict keywords present in text.
func Keywords(text string) map[models.Verdict]bool {
	out := make(map[models.Verdict]bool, 3)
	for _, m := range keywordPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := models.ParseVerdict(m[1]); ok {
			out[v] = true
		}
	}
	return out
}
