package loadsave

import (
	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/table"
)

// checkOrder requires strictly ascending steps. Out-of-order and duplicate
// steps are reported, never sorted.
func checkOrder(steps []int) error {
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			reason := "steps must be strictly ascending"
			if steps[i] == steps[i-1] {
				reason = "duplicate step"
			}
			return &StitchError{PrevStep: steps[i-1], Step: steps[i], Reason: reason}
		}
	}
	return nil
}

type stitched struct {
	tables      map[table.Kind]*table.Table
	composition map[table.CompKind]*table.Table
	network     network.Network
}

// stitch concatenates per-step data along the time axis in the given order.
// Each step's tables are copied; the inputs are not modified.
func stitch(parts []*extract.StepData) (*stitched, error) {
	out := &stitched{
		tables:      make(map[table.Kind]*table.Table),
		composition: make(map[table.CompKind]*table.Table),
	}
	if len(parts) == 0 {
		return out, nil
	}

	first := parts[0]
	out.network = first.Network
	for _, kind := range table.Kinds {
		if t := first.Tables[kind]; t != nil {
			out.tables[kind] = t.Clone()
		}
	}
	for _, kind := range table.CompKinds {
		if t := first.Composition[kind]; t != nil {
			out.composition[kind] = t.Clone()
		}
	}

	for i := 1; i < len(parts); i++ {
		prev, cur := parts[i-1], parts[i]
		if prev.HasOutput() != cur.HasOutput() {
			return nil, &StitchError{PrevStep: prev.Step, Step: cur.Step,
				Reason: "SkyNet output present in only one step"}
		}
		if cur.HasOutput() && !out.network.Equal(cur.Network) {
			return nil, &StitchError{PrevStep: prev.Step, Step: cur.Step,
				Reason: "isotope networks differ"}
		}

		for _, kind := range table.Kinds {
			next := cur.Tables[kind]
			if next == nil {
				continue
			}
			if err := join(out.tables[kind], next, string(kind), prev.Step, cur.Step); err != nil {
				return nil, err
			}
		}
		// Composition shares the columns time index, checked above.
		for _, kind := range table.CompKinds {
			next := cur.Composition[kind]
			if next == nil {
				continue
			}
			if err := join(out.composition[kind], next, string(kind), prev.Step, cur.Step); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func join(acc, next *table.Table, kind string, prevStep, step int) error {
	if acc == nil {
		return &StitchError{Kind: kind, PrevStep: prevStep, Step: step,
			Reason: kind + " table missing from earlier step"}
	}
	_, prevEnd, okPrev := acc.TimeSpan()
	start, _, okNext := next.TimeSpan()
	if okPrev && okNext && start < prevEnd {
		return &StitchError{Kind: kind, PrevStep: prevStep, Step: step, PrevEnd: prevEnd, Start: start}
	}
	if err := acc.Append(next); err != nil {
		return &StitchError{Kind: kind, PrevStep: prevStep, Step: step, Reason: err.Error()}
	}
	return nil
}
