// Package lp writes optimization models in LP text format.
package lp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/srand/solvelink/pkg/model"
)

var ErrCapability = errors.New("model cannot be written in LP format")

// CapabilityError is returned for model features the LP format cannot
// represent. It is detected before any output is written.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCapability, e.Reason)
}

func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}

type options struct {
	statistics bool
}

type Option func(*options)

// WithStatistics prefixes the output with a comment block of model counts.
func WithStatistics() Option {
	return func(o *options) {
		o.statistics = true
	}
}

// CheckCapabilities returns a CapabilityError if the model has general
// nonlinear terms, conic constraints or semi-integer variables.
func CheckCapabilities(m *model.Model) error {
	if m.HasNonlinear() {
		return &CapabilityError{Reason: "instance has general nonlinear equations"}
	}
	if m.RowKindCount(model.Conic) > 0 {
		return &CapabilityError{Reason: "instance has conic equations"}
	}
	if m.KindCount(model.SemiInteger) > 0 {
		return &CapabilityError{Reason: "instance has semi-integer variables"}
	}
	for i, c := range m.Constraints {
		switch c.Kind {
		case model.Equal, model.Less, model.Greater:
		default:
			return &CapabilityError{Reason: fmt.Sprintf("constraint %d has unsupported type %v", i, c.Kind)}
		}
	}
	return nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 15, 64)
}

type writer struct {
	m    *model.Model
	e    *Emitter
	opts options
}

// Write serializes the model to w. Output already written when an error
// occurs is not retracted; the caller must discard it.
func Write(m *model.Model, w io.Writer, opts ...Option) error {
	if err := CheckCapabilities(m); err != nil {
		return err
	}

	lw := &writer{m: m, e: NewEmitter(w)}
	for _, opt := range opts {
		opt(&lw.opts)
	}

	if lw.opts.statistics {
		lw.writeStatistics()
	}

	steps := []func(){
		lw.writeObjective,
		lw.writeConstraints,
		lw.writeBounds,
		lw.writeVarTypes,
		lw.writeEnd,
	}

	for _, step := range steps {
		step()
		if err := lw.e.Err(); err != nil {
			return err
		}
	}

	return nil
}

func (w *writer) line(fragments ...string) {
	for _, fragment := range fragments {
		w.e.Append(fragment)
	}
	w.e.EndLine()
}

func (w *writer) hasObjConstant() bool {
	obj := &w.m.Objective
	return obj.Style == model.ObjectiveExpression && obj.Constant != 0
}

func (w *writer) writeStatistics() {
	const comment = "\\ "
	m := w.m

	if name := strings.Join(strings.Fields(m.Name), " "); name != "" {
		if len(name) > 60 {
			name = name[:60]
		}
		w.line(comment, "Model ", name)
		w.line(comment)
	}

	w.line(comment, "Equation counts")
	w.line(comment, "    Total        E        G        L")
	w.line(fmt.Sprintf("%s%9d%9d%9d%9d", comment,
		m.NumRows(),
		m.RowKindCount(model.Equal),
		m.RowKindCount(model.Greater),
		m.RowKindCount(model.Less)))
	w.line(comment)

	w.line(comment, "Variable counts")
	w.line(comment, "                 x        b        i       sc      sos")
	w.line(comment, "    Total     cont   binary  integer    scont     sets")
	w.line(fmt.Sprintf("%s%9d%9d%9d%9d%9d%9d", comment,
		m.NumVars(),
		m.KindCount(model.Continuous),
		m.KindCount(model.Binary),
		m.KindCount(model.Integer),
		m.KindCount(model.SemiContinuous),
		len(m.SOS)))
	w.line(comment)

	linear, quadratic := m.NonzeroCount()
	w.line(comment, "Nonzero counts")
	w.line(comment, "    Total   linear     quad")
	w.line(fmt.Sprintf("%s%9d%9d%9d", comment, linear+quadratic, linear, quadratic))
	w.line(comment)
}

// Writes terms of a row or the objective. Quadratic coefficients are
// multiplied by quadScale before the diagonal is halved.
func (w *writer) writeFunction(linear []model.Term, quadratic []model.QTerm, quadScale float64) {
	var buf strings.Builder

	for i, term := range linear {
		buf.Reset()

		if term.Coef < 0 {
			buf.WriteString("- ")
		} else if i > 0 {
			buf.WriteString("+ ")
		}

		if math.Abs(term.Coef) != 1 {
			buf.WriteString(formatFloat(math.Abs(term.Coef)))
			buf.WriteString(" ")
		}

		buf.WriteString(VarName(w.m, term.Var))

		if i+1 < len(linear) {
			buf.WriteString(" ")
		}

		w.e.Append(buf.String())
	}

	if len(quadratic) == 0 {
		return
	}

	if len(linear) > 0 {
		w.e.Append(" + ")
	}

	w.e.Append("[ ")

	for i, term := range quadratic {
		buf.Reset()

		coef := term.Coef * quadScale
		if term.IsDiagonal() {
			coef /= 2
		}

		if coef < 0 {
			buf.WriteString("- ")
		} else if i > 0 {
			buf.WriteString("+ ")
		}

		if math.Abs(coef) != 1 {
			buf.WriteString(formatFloat(math.Abs(coef)))
			buf.WriteString(" ")
		}

		buf.WriteString(VarName(w.m, term.Col))
		if term.IsDiagonal() {
			buf.WriteString("^2")
		} else {
			buf.WriteString(" * ")
			buf.WriteString(VarName(w.m, term.Row))
		}
		buf.WriteString(" ")

		w.e.Append(buf.String())
	}

	w.e.Append("]")
}

func (w *writer) writeObjective() {
	obj := &w.m.Objective

	if obj.Sense == model.Maximize {
		w.line("Maximize")
	} else {
		w.line("Minimize")
	}

	w.e.Append(" obj: ")

	var linear []model.Term
	var quadratic []model.QTerm

	if obj.Style == model.ObjectiveVariable {
		linear = []model.Term{{Var: obj.Var, Coef: 1}}
	} else {
		for _, term := range obj.Linear {
			if term.Coef != 0 {
				linear = append(linear, term)
			}
		}
		quadratic = obj.Quadratic
	}

	// The quadratic block of the objective is divided by two.
	w.writeFunction(linear, quadratic, 2)
	if len(quadratic) > 0 {
		w.e.Append("/2")
	}

	if w.hasObjConstant() {
		w.e.Append(" + " + ObjConstantName)
	}

	w.e.EndLine()
	w.e.EndLine()
}

func (w *writer) writeConstraints() {
	w.line("Subject To")

	for i, row := range w.m.Constraints {
		if w.e.Err() != nil {
			return
		}

		w.e.Append(" " + RowName(i) + ": ")
		w.writeFunction(row.Linear, row.Quadratic, 1)

		switch row.Kind {
		case model.Equal:
			w.e.Append(" = ")
		case model.Greater:
			w.e.Append(" >= ")
		case model.Less:
			w.e.Append(" <= ")
		}

		w.e.Append(formatFloat(row.RHS))
		w.e.EndLine()
	}

	w.e.EndLine()
}

func (w *writer) writeBounds() {
	printedHeader := false
	header := func() {
		if !printedHeader {
			w.line("Bounds")
			printedHeader = true
		}
	}

	for i, v := range w.m.Variables {
		if w.e.Err() != nil {
			return
		}

		defaultUpper := math.Inf(1)
		if v.Kind == model.Binary {
			defaultUpper = 1
		}

		if v.Lower == 0 && v.Upper == defaultUpper {
			continue
		}

		header()
		w.e.Append(" ")

		name := VarName(w.m, i)

		if math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1) {
			w.line(name, " Free")
			continue
		}

		if v.Lower != 0 && v.Lower != v.Upper {
			w.e.Append(formatFloat(v.Lower))
			w.e.Append(" <= ")
		}

		w.e.Append(name)

		if v.Upper != defaultUpper || v.Lower == v.Upper {
			if v.Lower != v.Upper {
				w.e.Append(" <= ")
			} else {
				w.e.Append(" = ")
			}
			w.e.Append(formatFloat(v.Upper))
		}

		w.e.EndLine()
	}

	if w.hasObjConstant() {
		header()
		w.line(" ", ObjConstantName, " = ", formatFloat(w.m.Objective.Constant))
	}

	if printedHeader {
		w.e.EndLine()
	}
}

func (w *writer) writeVarSection(title string, kind model.VarKind) {
	printedHeader := false

	for i, v := range w.m.Variables {
		if v.Kind != kind {
			continue
		}

		if !printedHeader {
			w.line(title)
			printedHeader = true
		}

		w.e.Append(" " + VarName(w.m, i))

		if w.e.Len() > SoftLineLength-10 {
			w.e.EndLine()
		}
	}

	if printedHeader {
		w.e.EndLine()
		w.e.EndLine()
	}
}

func (w *writer) writeVarTypes() {
	w.writeVarSection("Binary", model.Binary)
	w.writeVarSection("General", model.Integer)
	w.writeVarSection("Semi", model.SemiContinuous)

	printedHeader := false
	for i, set := range w.m.SOS {
		if len(set.Members) == 0 {
			continue
		}

		if !printedHeader {
			w.line("SOS")
			printedHeader = true
		}

		w.e.Append(fmt.Sprintf(" set%03d: S%d::", i, set.Type))
		for _, member := range set.Members {
			w.e.Append(" " + VarName(w.m, member.Var) + ":" + formatFloat(member.Weight))
		}
		w.e.EndLine()
	}

	if printedHeader {
		w.e.EndLine()
	}
}

func (w *writer) writeEnd() {
	w.line("End")
}
