package resolver

import (
	"math"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/restype"
)

// Resolver walks the untyped AST and resolves every node to a TypedExpression
// carrying a restype.Type, per spec §4.2.
type Resolver struct {
	root *scope
	// currentReturn tracks the declared return type of the function whose
	// body is currently being resolved; a ReturnStmt whose value does not
	// match it (I32->I64 widening aside) fails resolution with TypeMismatch.
	// spec §4.3 (return-type-matches) repeats the same check during
	// semantic analysis, using TypedExpression.ReturnType.
	currentReturn *restype.Type
}

// New creates a Resolver with a fresh module-level scope.
func New() *Resolver {
	return &Resolver{root: newScope(nil)}
}

// Program resolves every top-level expression, pre-binding all function
// signatures first so that forward references and recursion work (spec
// §4.2 FuncStmt: "bind the function symbol at module scope first").
func (r *Resolver) Program(exprs []*ast.Expression) ([]*restype.TypedExpression, error) {
	for _, e := range exprs {
		if e.Kind == ast.FuncStmt {
			sig, err := r.funcSignature(e)
			if err != nil {
				return nil, err
			}
			r.root.bind(e.Name, sig)
		}
	}

	out := make([]*restype.TypedExpression, 0, len(exprs))
	for _, e := range exprs {
		typed, err := r.resolve(e, r.root)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

func (r *Resolver) funcSignature(e *ast.Expression) (restype.Type, error) {
	params := make([]restype.Type, len(e.Params))
	for i, p := range e.Params {
		params[i] = fromSurface(p.Type)
	}
	return restype.Func(params, fromSurface(e.ReturnType)), nil
}

// fromSurface converts a surface ast.Type into its resolved counterpart.
// ast.TypeNone as a return type means void; as a let-declaration it is
// handled separately (caller must infer).
func fromSurface(t ast.Type) restype.Type {
	switch t.Kind {
	case ast.TypeI32:
		return restype.Int32
	case ast.TypeI64:
		return restype.Int64
	case ast.TypeBool:
		return restype.Boolean
	case ast.TypeString:
		return restype.Str
	case ast.TypeList:
		if t.Elem == nil {
			return restype.ListOf(restype.Int32)
		}
		return restype.ListOf(fromSurface(*t.Elem))
	case ast.TypeNone:
		return restype.Void
	default:
		return restype.Void
	}
}

func (r *Resolver) resolve(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case ast.Number:
		return r.resolveNumber(e), nil
	case ast.String:
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Str, StrVal: e.StrVal, Line: e.Line, Pos: e.Pos}, nil
	case ast.Bool:
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Boolean, BoolVal: e.BoolVal, Line: e.Line, Pos: e.Pos}, nil
	case ast.Variable:
		return r.resolveVariable(e, sc)
	case ast.Binary:
		return r.resolveBinary(e, sc)
	case ast.Grouping:
		inner, err := r.resolve(e.Inner, sc)
		if err != nil {
			return nil, err
		}
		return &restype.TypedExpression{Kind: e.Kind, Type: inner.Type, Inner: inner, Line: e.Line, Pos: e.Pos}, nil
	case ast.LetStmt:
		return r.resolveLet(e, sc)
	case ast.AssignStmt:
		return r.resolveAssign(e, sc)
	case ast.IfStmt:
		return r.resolveIf(e, sc)
	case ast.WhileStmt:
		return r.resolveWhile(e, sc)
	case ast.ForStmt:
		// The desugarer rewrites every ForStmt into a Let+While block
		// (spec §4.1) before the resolver ever runs; reaching this case
		// means that pass was skipped.
		return nil, newErr(InvalidDeclaration, e.Line, e.Pos, "for-loop reached the resolver without being desugared")
	case ast.BlockStmt:
		return r.resolveBlock(e, sc)
	case ast.FuncStmt:
		return r.resolveFunc(e, sc)
	case ast.CallStmt:
		return r.resolveCall(e, sc)
	case ast.ReturnStmt:
		return r.resolveReturn(e, sc)
	case ast.BreakStmt:
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Line: e.Line, Pos: e.Pos}, nil
	case ast.Print:
		v, err := r.resolve(e.Value, sc)
		if err != nil {
			return nil, err
		}
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Value: v, Line: e.Line, Pos: e.Pos}, nil
	case ast.List:
		return r.resolveList(e, sc)
	case ast.ListIndex:
		return r.resolveListIndex(e, sc)
	case ast.ListAssign:
		return r.resolveListAssign(e, sc)
	case ast.Len:
		return r.resolveLen(e, sc)
	case ast.ExternModule:
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Path: e.Path, Line: e.Line, Pos: e.Pos}, nil
	default:
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "unresolvable node kind %s", e.Kind)
	}
}

// resolveNumber resolves a literal, escalating to I64 on an explicit
// suffix or overflow of the i32 range (spec §4.2).
func (r *Resolver) resolveNumber(e *ast.Expression) *restype.TypedExpression {
	is64 := e.Is64 || e.NumVal > math.MaxInt32 || e.NumVal < math.MinInt32
	t := restype.Int32
	if is64 {
		t = restype.Int64
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: t, NumVal: e.NumVal, Line: e.Line, Pos: e.Pos}
}

func (r *Resolver) resolveVariable(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	t, ok := sc.lookup(e.Name)
	if !ok {
		return nil, newErr(UndefinedName, e.Line, e.Pos, "undefined name %q", e.Name)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: t, Name: e.Name, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveBinary(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	// Unary '!' is represented as a Binary node with only Right populated.
	if e.Op == "!" {
		right, err := r.resolve(e.Right, sc)
		if err != nil {
			return nil, err
		}
		if right.Type.Kind != restype.BoolT {
			return nil, newErr(TypeMismatch, e.Line, e.Pos, "operator ! requires bool operand, got %s", right.Type)
		}
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Boolean, Op: e.Op, Right: right, Line: e.Line, Pos: e.Pos}, nil
	}

	left, err := r.resolve(e.Left, sc)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(e.Right, sc)
	if err != nil {
		return nil, err
	}

	if !left.Type.Equal(right.Type) {
		return nil, newErr(TypeMismatch, e.Line, e.Pos,
			"binary %s requires matching operand types, got %s and %s", e.Op, left.Type, right.Type)
	}

	if isComparisonOp(e.Op) {
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Boolean, Op: e.Op, Left: left, Right: right, Line: e.Line, Pos: e.Pos}, nil
	}

	// Arithmetic: preserve operand type. '+' over strings is allowed; every
	// other arithmetic op requires a numeric operand type.
	if e.Op == "+" && left.Type.Kind == restype.StringT {
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Str, Op: e.Op, Left: left, Right: right, Line: e.Line, Pos: e.Pos}, nil
	}
	if !left.Type.IsNumeric() {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "operator %s requires numeric or (for +) string operands, got %s", e.Op, left.Type)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: left.Type, Op: e.Op, Left: left, Right: right, Line: e.Line, Pos: e.Pos}, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return true
	default:
		return false
	}
}

func (r *Resolver) resolveLet(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	value, err := r.resolve(e.Value, sc)
	if err != nil {
		return nil, err
	}

	var declared restype.Type
	if e.DeclType.Kind == ast.TypeNone {
		if value.Type.Kind == restype.ListT && value.Type.Elem == nil {
			return nil, newErr(InvalidDeclaration, e.Line, e.Pos, "empty list literal %q requires a declared type", e.Name)
		}
		declared = value.Type
	} else {
		declared = fromSurface(e.DeclType)
		if !declared.Equal(value.Type) {
			if declared.Kind == restype.I64 && value.Type.Kind == restype.I32 {
				// I32 -> I64 widening allowed.
			} else if declared.Kind == restype.ListT && value.Type.Kind == restype.ListT && value.Type.Elem == nil {
				// An empty list literal takes its element type from the declaration.
				value.Type = declared
			} else {
				return nil, newErr(TypeMismatch, e.Line, e.Pos,
					"let %q declared as %s but initializer has type %s", e.Name, declared, value.Type)
			}
		}
	}

	if sc.declaredHere(e.Name) {
		// Shadowing: silently allowed outside strict mode (spec §4.2).
	}
	sc.bind(e.Name, declared)

	return &restype.TypedExpression{
		Kind: e.Kind, Type: restype.Void, Name: e.Name, DeclType: declared, Value: value, Line: e.Line, Pos: e.Pos,
	}, nil
}

func (r *Resolver) resolveAssign(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	declared, ok := sc.lookup(e.Name)
	if !ok {
		return nil, newErr(UndefinedName, e.Line, e.Pos, "undefined name %q", e.Name)
	}
	value, err := r.resolve(e.Value, sc)
	if err != nil {
		return nil, err
	}
	if !declared.Equal(value.Type) {
		if !(declared.Kind == restype.I64 && value.Type.Kind == restype.I32) {
			return nil, newErr(TypeMismatch, e.Line, e.Pos,
				"cannot assign value of type %s to %q of type %s", value.Type, e.Name, declared)
		}
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Name: e.Name, Value: value, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveIf(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	cond, err := r.resolve(e.Cond, sc)
	if err != nil {
		return nil, err
	}
	if cond.Type.Kind != restype.BoolT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "if condition must be bool, got %s", cond.Type)
	}
	then, err := r.resolve(e.Then, newScope(sc))
	if err != nil {
		return nil, err
	}
	var els *restype.TypedExpression
	if e.Else != nil {
		els, err = r.resolve(e.Else, newScope(sc))
		if err != nil {
			return nil, err
		}
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Cond: cond, Then: then, Else: els, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveWhile(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	cond, err := r.resolve(e.Cond, sc)
	if err != nil {
		return nil, err
	}
	if cond.Type.Kind != restype.BoolT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "while condition must be bool, got %s", cond.Type)
	}
	body, err := r.resolve(e.Then, newScope(sc))
	if err != nil {
		return nil, err
	}
	return &restype.TypedExpression{Kind: ast.WhileStmt, Type: restype.Void, Cond: cond, Then: body, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveBlock(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	inner := newScope(sc)
	stmts := make([]*restype.TypedExpression, 0, len(e.Stmts))
	for _, s := range e.Stmts {
		typed, err := r.resolve(s, inner)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, typed)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Stmts: stmts, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveFunc(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	retType := fromSurface(e.ReturnType)
	fnScope := newScope(sc)
	params := make([]restype.Param, len(e.Params))
	for i, p := range e.Params {
		pt := fromSurface(p.Type)
		fnScope.bind(p.Name, pt)
		params[i] = restype.Param{Name: p.Name, Type: pt}
	}

	savedReturn := r.currentReturn
	r.currentReturn = &retType
	body, err := r.resolve(e.Body, fnScope)
	r.currentReturn = savedReturn
	if err != nil {
		return nil, err
	}

	return &restype.TypedExpression{
		Kind: e.Kind, Type: restype.Void, Name: e.Name,
		Params: params, ReturnType: retType, Body: body, Line: e.Line, Pos: e.Pos,
	}, nil
}

func (r *Resolver) resolveCall(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	calleeType, ok := sc.lookup(e.Callee.Name)
	if e.Callee.Kind != ast.Variable || !ok {
		return nil, newErr(UndefinedName, e.Line, e.Pos, "undefined function %q", e.Callee.Name)
	}
	if calleeType.Kind != restype.FunctionT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "%q is not callable", e.Callee.Name)
	}
	if len(e.Args) != len(calleeType.Params) {
		return nil, newErr(ArityMismatch, e.Line, e.Pos,
			"function %q expects %d arguments, got %d", e.Callee.Name, len(calleeType.Params), len(e.Args))
	}
	args := make([]*restype.TypedExpression, len(e.Args))
	for i, a := range e.Args {
		typed, err := r.resolve(a, sc)
		if err != nil {
			return nil, err
		}
		want := calleeType.Params[i]
		if !want.Equal(typed.Type) && !(want.Kind == restype.I64 && typed.Type.Kind == restype.I32) {
			return nil, newErr(TypeMismatch, e.Line, e.Pos,
				"argument %d of %q: expected %s, got %s", i, e.Callee.Name, want, typed.Type)
		}
		args[i] = typed
	}
	callee := &restype.TypedExpression{Kind: ast.Variable, Type: calleeType, Name: e.Callee.Name, Line: e.Callee.Line, Pos: e.Callee.Pos}
	return &restype.TypedExpression{
		Kind: e.Kind, Type: *calleeType.Returns, Callee: callee, Args: args, Line: e.Line, Pos: e.Pos,
	}, nil
}

func (r *Resolver) resolveReturn(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	var value *restype.TypedExpression
	var err error
	valType := restype.Void
	if e.Value != nil {
		value, err = r.resolve(e.Value, sc)
		if err != nil {
			return nil, err
		}
		valType = value.Type
	}
	if r.currentReturn != nil {
		want := *r.currentReturn
		if !want.Equal(valType) && !(want.Kind == restype.I64 && valType.Kind == restype.I32) {
			return nil, newErr(TypeMismatch, e.Line, e.Pos,
				"return type mismatch: function declares %s, returned %s", want, valType)
		}
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: valType, Value: value, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveList(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	if len(e.Elements) == 0 {
		// Ambiguous without a declared type; resolveLet handles the
		// declared-type case. A bare empty list outside a let is always
		// ambiguous.
		return &restype.TypedExpression{Kind: e.Kind, Type: restype.Type{Kind: restype.ListT}, Line: e.Line, Pos: e.Pos}, nil
	}
	elems := make([]*restype.TypedExpression, len(e.Elements))
	var elemType restype.Type
	for i, el := range e.Elements {
		typed, err := r.resolve(el, sc)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elemType = typed.Type
		} else if !elemType.Equal(typed.Type) {
			return nil, newErr(TypeMismatch, e.Line, e.Pos,
				"list elements must share a type: element 0 is %s, element %d is %s", elemType, i, typed.Type)
		}
		elems[i] = typed
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.ListOf(elemType), Elements: elems, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveListIndex(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	list, err := r.resolve(e.List, sc)
	if err != nil {
		return nil, err
	}
	if list.Type.Kind != restype.ListT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "cannot index non-list type %s", list.Type)
	}
	idx, err := r.resolve(e.Index, sc)
	if err != nil {
		return nil, err
	}
	if idx.Type.Kind != restype.I32 {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "list index must be i32, got %s", idx.Type)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: *list.Type.Elem, List: list, Index: idx, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveListAssign(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	listType, ok := sc.lookup(e.Name)
	if !ok {
		return nil, newErr(UndefinedName, e.Line, e.Pos, "undefined name %q", e.Name)
	}
	if listType.Kind != restype.ListT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "%q is not a list", e.Name)
	}
	idx, err := r.resolve(e.Index, sc)
	if err != nil {
		return nil, err
	}
	if idx.Type.Kind != restype.I32 {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "list index must be i32, got %s", idx.Type)
	}
	value, err := r.resolve(e.Value, sc)
	if err != nil {
		return nil, err
	}
	if !listType.Elem.Equal(value.Type) {
		return nil, newErr(TypeMismatch, e.Line, e.Pos,
			"cannot assign %s into list<%s> %q", value.Type, listType.Elem, e.Name)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.Void, Name: e.Name, Index: idx, Value: value, Line: e.Line, Pos: e.Pos}, nil
}

func (r *Resolver) resolveLen(e *ast.Expression, sc *scope) (*restype.TypedExpression, error) {
	value, err := r.resolve(e.Value, sc)
	if err != nil {
		return nil, err
	}
	if value.Type.Kind != restype.StringT && value.Type.Kind != restype.ListT {
		return nil, newErr(TypeMismatch, e.Line, e.Pos, "len() requires string or list argument, got %s", value.Type)
	}
	return &restype.TypedExpression{Kind: e.Kind, Type: restype.Int32, Value: value, Line: e.Line, Pos: e.Pos}, nil
}
