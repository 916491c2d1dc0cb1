package codegen

import (
	"fmt"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/restype"
	"tinygo.org/x/go-llvm"
)

// Generator is the single top-down walk of the resolved typed AST (spec
// §4.6). It lowers every statement with the builder and returns a handle
// for any expression; statements return a Void handle.
type Generator struct {
	b *Builder
}

// NewGenerator wraps an initialized Builder.
func NewGenerator(b *Builder) *Generator {
	return &Generator{b: b}
}

// Program lowers every top-level FuncStmt. Function headers are declared
// in a first pass so forward references and recursion resolve (mirroring
// vslc's genFuncHeader/genFuncBody split), then bodies are generated in a
// second pass.
func (g *Generator) Program(top []*restype.TypedExpression) error {
	for _, e := range top {
		if e.Kind != ast.FuncStmt {
			continue
		}
		if err := g.declareFunc(e); err != nil {
			return err
		}
	}
	for _, e := range top {
		if e.Kind != ast.FuncStmt {
			continue
		}
		if err := g.genFuncBody(e); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) declareFunc(e *restype.TypedExpression) error {
	retTy := llvmType(e.ReturnType)
	paramTys := make([]llvm.Type, len(e.Params))
	for i, p := range e.Params {
		paramTys[i] = llvmType(p.Type)
	}
	fnType := llvm.FunctionType(retTy, paramTys, false)

	var fn llvm.Value
	if e.Name == "main" {
		fn = g.b.curFn
	} else {
		fn = llvm.AddFunction(g.b.mod, e.Name, fnType)
	}

	template, err := zeroValueTemplate(e.ReturnType)
	if err != nil {
		return err
	}
	g.b.scope.bind(e.Name, NewFunc(fn, fnType, template, e.ReturnType.Kind == restype.VoidT))
	return nil
}

func (g *Generator) genFuncBody(e *restype.TypedExpression) error {
	fn := g.b.mod.NamedFunction(e.Name)
	if fn.IsNil() && e.Name == "main" {
		fn = g.b.curFn
	}

	savedFn, savedBlock, savedScope, savedLoops := g.b.curFn, g.b.curBlock, g.b.scope, g.b.loopExits
	g.b.loopExits = nil
	g.b.scope = newVarScope(savedScope)

	var entry llvm.BasicBlock
	if e.Name == "main" {
		entry = savedBlock
	} else {
		entry = llvm.AddBasicBlock(fn, "entry")
	}
	g.b.curFn = fn
	g.b.positionAtEnd(entry)

	for i, p := range e.Params {
		ty := llvmType(p.Type)
		slot := g.b.alloca(ty, p.Name)
		g.b.store(fn.Param(i), slot)
		g.b.scope.bind(p.Name, slotHandle(p.Type, slot))
	}

	terminated, err := g.genBlockStmts(e.Body.Stmts)
	if err != nil {
		g.b.curFn, g.b.curBlock, g.b.scope, g.b.loopExits = savedFn, savedBlock, savedScope, savedLoops
		return err
	}
	if !terminated {
		if e.ReturnType.Kind == restype.VoidT {
			g.b.irb.CreateRetVoid()
		} else {
			g.b.curFn, g.b.curBlock, g.b.scope, g.b.loopExits = savedFn, savedBlock, savedScope, savedLoops
			return newErr(InternalInvariant, "function "+e.Name+" falls off its end without a return")
		}
	}

	g.b.curFn, g.b.curBlock, g.b.scope, g.b.loopExits = savedFn, savedBlock, savedScope, savedLoops
	if !g.b.curBlock.IsNil() {
		g.b.irb.SetInsertPointAtEnd(g.b.curBlock)
	}
	return nil
}

// genBlockStmts lowers a Block's statements in a fresh lexical scope,
// stopping at the first ReturnStmt/BreakStmt (spec §4.6: "subsequent
// statements are skipped for IR emission").
func (g *Generator) genBlockStmts(stmts []*restype.TypedExpression) (bool, error) {
	saved := g.b.scope
	g.b.scope = newVarScope(saved)
	defer func() { g.b.scope = saved }()

	for _, s := range stmts {
		switch s.Kind {
		case ast.ReturnStmt:
			if err := g.genReturn(s); err != nil {
				return false, err
			}
			return true, nil
		case ast.BreakStmt:
			exit, ok := g.b.currentLoopExit()
			if !ok {
				return false, newErr(InternalInvariant, "break outside of a loop reached codegen")
			}
			g.b.br(exit)
			return true, nil
		case ast.IfStmt:
			if err := g.genIf(s); err != nil {
				return false, err
			}
		case ast.WhileStmt:
			if err := g.genWhile(s); err != nil {
				return false, err
			}
		default:
			if _, err := g.genStmt(s); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// genStmt lowers one non-control-flow statement (or a Block). Statements
// return a Void handle; a call or bare expression returns its own handle.
func (g *Generator) genStmt(e *restype.TypedExpression) (Value, error) {
	switch e.Kind {
	case ast.BlockStmt:
		if _, err := g.genBlockStmts(e.Stmts); err != nil {
			return nil, err
		}
		return Void{}, nil
	case ast.LetStmt:
		return Void{}, g.genLet(e)
	case ast.AssignStmt:
		return Void{}, g.genAssign(e)
	case ast.ListAssign:
		return Void{}, g.genListAssign(e)
	case ast.Print:
		return Void{}, g.genPrint(e)
	case ast.CallStmt:
		return g.genCall(e)
	case ast.ExternModule:
		return Void{}, nil
	default:
		return g.genExpr(e)
	}
}

func (g *Generator) genReturn(e *restype.TypedExpression) error {
	if e.Value == nil {
		g.b.irb.CreateRetVoid()
		return nil
	}
	v, err := g.genExpr(e.Value)
	if err != nil {
		return err
	}
	g.b.irb.CreateRet(v.Load(g.b))
	return nil
}

func (g *Generator) genIf(e *restype.TypedExpression) error {
	cond, err := g.genExpr(e.Cond)
	if err != nil {
		return err
	}

	thenBB := g.b.appendBlock("then")
	if e.Else == nil {
		mergeBB := g.b.appendBlock("merge")
		g.b.condBr(cond.Load(g.b), thenBB, mergeBB)

		g.b.positionAtEnd(thenBB)
		terminated, err := g.genBranchBody(e.Then)
		if err != nil {
			return err
		}
		if !terminated {
			g.b.br(mergeBB)
		}
		g.b.positionAtEnd(mergeBB)
		return nil
	}

	elseBB := g.b.appendBlock("else")
	g.b.condBr(cond.Load(g.b), thenBB, elseBB)

	g.b.positionAtEnd(thenBB)
	thenTerm, err := g.genBranchBody(e.Then)
	if err != nil {
		return err
	}
	var mergeBB llvm.BasicBlock
	if !thenTerm {
		mergeBB = g.b.appendBlock("merge")
		g.b.br(mergeBB)
	}

	g.b.positionAtEnd(elseBB)
	elseTerm, err := g.genBranchBody(e.Else)
	if err != nil {
		return err
	}
	if !elseTerm {
		if mergeBB.IsNil() {
			mergeBB = g.b.appendBlock("merge")
		}
		g.b.br(mergeBB)
	}

	if !mergeBB.IsNil() {
		g.b.positionAtEnd(mergeBB)
	}
	return nil
}

// genBranchBody lowers an if/while branch body, which the parser always
// produces as a BlockStmt, and reports whether it terminated.
func (g *Generator) genBranchBody(e *restype.TypedExpression) (bool, error) {
	if e.Kind == ast.BlockStmt {
		return g.genBlockStmts(e.Stmts)
	}
	return g.genBlockStmts([]*restype.TypedExpression{e})
}

func (g *Generator) genWhile(e *restype.TypedExpression) error {
	head := g.b.appendBlock("loop.head")
	body := g.b.appendBlock("loop.body")
	exit := g.b.appendBlock("loop.exit")

	g.b.br(head)
	g.b.positionAtEnd(head)
	cond, err := g.genExpr(e.Cond)
	if err != nil {
		return err
	}
	g.b.condBr(cond.Load(g.b), body, exit)

	g.b.positionAtEnd(body)
	g.b.pushLoopExit(exit)
	terminated, err := g.genBranchBody(e.Then)
	g.b.popLoopExit()
	if err != nil {
		return err
	}
	if !terminated {
		g.b.br(head)
	}

	g.b.positionAtEnd(exit)
	return nil
}

func (g *Generator) genLet(e *restype.TypedExpression) error {
	val, err := g.genExpr(e.Value)
	if err != nil {
		return err
	}
	slot := g.b.alloca(llvmType(e.DeclType), e.Name)
	stored := widen(g.b, val, e.DeclType)
	g.b.store(stored, slot)
	g.b.scope.bind(e.Name, slotHandle(e.DeclType, slot))
	return nil
}

func (g *Generator) genAssign(e *restype.TypedExpression) error {
	dst, ok := g.b.scope.lookup(e.Name)
	if !ok {
		return newErr(InternalInvariant, "assignment to undeclared name "+e.Name+" reached codegen")
	}
	src, err := g.genExpr(e.Value)
	if err != nil {
		return err
	}
	slot, ok := dst.Slot()
	if !ok {
		return newErr(InternalInvariant, "assignment target "+e.Name+" has no slot")
	}
	declared := declaredTypeFromHandle(dst)
	g.b.store(widen(g.b, src, declared), slot)
	return nil
}

func (g *Generator) genCall(e *restype.TypedExpression) (Value, error) {
	callee, ok := g.b.scope.lookup(e.Callee.Name)
	if !ok {
		return nil, newErr(InternalInvariant, "call to undeclared function "+e.Callee.Name+" reached codegen")
	}
	fn, ok := callee.(Callable)
	if !ok {
		return nil, newErr(InternalInvariant, e.Callee.Name+" is not callable")
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := g.genExpr(a)
		if err != nil {
			return nil, err
		}
		// The resolver accepts an i32 argument for an i64 parameter.
		if params := e.Callee.Type.Params; i < len(params) && params[i].Kind == restype.I64 && v.Tag() == TagNumber32 {
			v = NewNumber64(widen(g.b, v, params[i]))
		}
		args[i] = v
	}
	return fn.Call(g.b, args)
}

func (g *Generator) genPrint(e *restype.TypedExpression) error {
	v, err := g.genExpr(e.Value)
	if err != nil {
		return err
	}
	p, ok := v.(Printable)
	if !ok {
		return newErr(InternalInvariant, "value has no print lowering")
	}
	return p.Print(g.b)
}

// genListAssign lowers `name[i] = v`. The runtime bitcode only wires an
// append-style pushInt32, not an indexed store, so every ListAssign lowers
// to a push of v: the index expression is not evaluated and no existing
// element is overwritten. A list whose elements are not i32 fails with
// UnsupportedListElement (see DESIGN.md).
func (g *Generator) genListAssign(e *restype.TypedExpression) error {
	dst, ok := g.b.scope.lookup(e.Name)
	if !ok {
		return newErr(InternalInvariant, "assignment to undeclared list "+e.Name+" reached codegen")
	}
	list, ok := dst.(*List)
	if !ok {
		return newErr(InternalInvariant, e.Name+" is not a list")
	}
	val, err := g.genExpr(e.Value)
	if err != nil {
		return err
	}
	return list.Push(g.b, val)
}

// genExpr lowers any expression node to a Value handle.
func (g *Generator) genExpr(e *restype.TypedExpression) (Value, error) {
	switch e.Kind {
	case ast.Number:
		if e.Type.Kind == restype.I64 {
			return NewNumber64(g.b.constInt64(e.NumVal)), nil
		}
		return NewNumber32(g.b.constInt32(e.NumVal)), nil
	case ast.String:
		return g.genStringLiteral(e.StrVal)
	case ast.Bool:
		return NewBool(g.b.constBool(e.BoolVal)), nil
	case ast.Variable:
		v, ok := g.b.scope.lookup(e.Name)
		if !ok {
			return nil, newErr(InternalInvariant, "undeclared variable "+e.Name+" reached codegen")
		}
		return v, nil
	case ast.Grouping:
		return g.genExpr(e.Inner)
	case ast.Binary:
		return g.genBinary(e)
	case ast.CallStmt:
		return g.genCall(e)
	case ast.List:
		return g.genListLiteral(e)
	case ast.ListIndex:
		return g.genListIndex(e)
	case ast.Len:
		return g.genLen(e)
	default:
		return nil, newErr(InternalInvariant, fmt.Sprintf("kind %s has no expression lowering", e.Kind))
	}
}

func (g *Generator) genStringLiteral(s string) (Value, error) {
	helper, err := g.b.helper("stringInit")
	if err != nil {
		return nil, err
	}
	global := g.b.constStrGlobal(s)
	v := g.b.irb.CreateCall(helper.Fn, []llvm.Value{global}, "")
	return NewString(v), nil
}

func (g *Generator) genLen(e *restype.TypedExpression) (Value, error) {
	v, err := g.genExpr(e.Value)
	if err != nil {
		return nil, err
	}
	lv, ok := v.(Lengthable)
	if !ok {
		return nil, newErr(InternalInvariant, "value has no len() lowering")
	}
	return lv.Length(g.b)
}

func (g *Generator) genListLiteral(e *restype.TypedExpression) (Value, error) {
	elem, err := listElemOf(e.Type)
	if err != nil {
		return nil, err
	}
	if elem != ListElemNumber32 {
		return nil, newErr(UnsupportedListElement, "list literals are only wired for list<i32>")
	}

	helper, err := g.b.helper("stringInit")
	if err != nil {
		return nil, err
	}
	listVal := g.b.irb.CreateCall(helper.Fn, []llvm.Value{g.b.constStrGlobal("")}, "")
	slot := g.b.alloca(llvm.PointerType(llvm.Int8Type(), 0), "")
	g.b.store(listVal, slot)
	list := NewListSlot(slot, elem)

	for _, el := range e.Elements {
		v, err := g.genExpr(el)
		if err != nil {
			return nil, err
		}
		if err := list.Push(g.b, v); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// genListIndex always fails with UnsupportedListElement: the runtime
// bitcode only wires push/print/len helpers (spec §4.5), so there is no
// per-element accessor to lower ListIndex against.
func (g *Generator) genListIndex(e *restype.TypedExpression) (Value, error) {
	return nil, newErr(UnsupportedListElement, "list indexing has no wired runtime helper")
}

func (g *Generator) genBinary(e *restype.TypedExpression) (Value, error) {
	if e.Op == "!" {
		right, err := g.genExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return NewBool(g.b.irb.CreateNot(right.Load(g.b), "")), nil
	}

	left, err := g.genExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.genExpr(e.Right)
	if err != nil {
		return nil, err
	}

	if left.Tag() == TagString {
		ls := left.(*String)
		switch e.Op {
		case "+":
			return ls.Add(g.b, right)
		case "==":
			return ls.Equal(g.b, right)
		case "!=":
			eq, err := ls.Equal(g.b, right)
			if err != nil {
				return nil, err
			}
			return NewBool(g.b.irb.CreateNot(eq.Load(g.b), "")), nil
		}
	}

	lv, rv := left.Load(g.b), right.Load(g.b)

	if pred, ok := icmpPredicates[e.Op]; ok {
		return NewBool(g.b.irb.CreateICmp(pred, lv, rv, "")), nil
	}

	switch e.Op {
	case "&&":
		return NewBool(g.b.irb.CreateAnd(lv, rv, "")), nil
	case "||":
		return NewBool(g.b.irb.CreateOr(lv, rv, "")), nil
	}

	var result llvm.Value
	switch e.Op {
	case "+":
		result = g.b.irb.CreateAdd(lv, rv, "")
	case "-":
		result = g.b.irb.CreateSub(lv, rv, "")
	case "*":
		result = g.b.irb.CreateMul(lv, rv, "")
	case "/":
		result = g.b.irb.CreateSDiv(lv, rv, "")
	case "%":
		result = g.b.irb.CreateSRem(lv, rv, "")
	default:
		return nil, newErr(InternalInvariant, "unknown binary operator "+e.Op+" reached codegen")
	}

	if e.Type.Kind == restype.I64 {
		return NewNumber64(result), nil
	}
	return NewNumber32(result), nil
}

var icmpPredicates = map[string]llvm.IntPredicate{
	"==": llvm.IntEQ,
	"!=": llvm.IntNE,
	"<":  llvm.IntSLT,
	"<=": llvm.IntSLE,
	">":  llvm.IntSGT,
	">=": llvm.IntSGE,
}

// ---- type/value helpers shared across the visitor ----

func llvmType(t restype.Type) llvm.Type {
	switch t.Kind {
	case restype.I32:
		return llvm.Int32Type()
	case restype.I64:
		return llvm.Int64Type()
	case restype.BoolT:
		return llvm.Int1Type()
	case restype.StringT:
		return llvm.PointerType(llvm.Int8Type(), 0)
	case restype.ListT:
		return llvm.PointerType(llvm.Int8Type(), 0)
	case restype.VoidT:
		return llvm.VoidType()
	default:
		return llvm.VoidType()
	}
}

func zeroValueTemplate(t restype.Type) (Value, error) {
	switch t.Kind {
	case restype.I32:
		return &Number32{}, nil
	case restype.I64:
		return &Number64{}, nil
	case restype.BoolT:
		return &Bool{}, nil
	case restype.StringT:
		return &String{}, nil
	case restype.ListT:
		elem, err := listElemOf(t)
		if err != nil {
			return nil, err
		}
		return &List{inner: elem}, nil
	case restype.VoidT:
		return Void{}, nil
	default:
		return nil, newErr(InternalInvariant, "no value template for resolved type "+t.String())
	}
}

func slotHandle(t restype.Type, slot llvm.Value) Value {
	switch t.Kind {
	case restype.I32:
		return NewNumber32Slot(slot)
	case restype.I64:
		return NewNumber64Slot(slot)
	case restype.BoolT:
		return NewBoolSlot(slot)
	case restype.StringT:
		return NewStringSlot(slot)
	case restype.ListT:
		elem, _ := listElemOf(t)
		return NewListSlot(slot, elem)
	default:
		return Void{}
	}
}

func listElemOf(t restype.Type) (ListElem, error) {
	if t.Elem == nil {
		return 0, newErr(UnsupportedListElement, "list has no known element type")
	}
	switch t.Elem.Kind {
	case restype.I32:
		return ListElemNumber32, nil
	case restype.StringT:
		return ListElemString, nil
	default:
		return ListElemOther, newErr(UnsupportedListElement, "unsupported list element type "+t.Elem.String())
	}
}

// declaredTypeFromHandle recovers the resolved type backing a handle, used
// by AssignStmt to decide whether I32->I64 widening applies.
func declaredTypeFromHandle(v Value) restype.Type {
	switch v.Tag() {
	case TagNumber32:
		return restype.Int32
	case TagNumber64:
		return restype.Int64
	case TagBool:
		return restype.Boolean
	case TagString:
		return restype.Str
	case TagList:
		return restype.Type{Kind: restype.ListT}
	default:
		return restype.Void
	}
}

// widen sign-extends src to match declared when src is I32 and declared
// is I64 (spec §4.2/§4.5's widening allowance); otherwise returns src's
// loaded value unchanged.
func widen(b *Builder, src Value, declared restype.Type) llvm.Value {
	loaded := src.Load(b)
	if declared.Kind == restype.I64 && src.Tag() == TagNumber32 {
		return b.irb.CreateSExt(loaded, llvm.Int64Type(), "")
	}
	return loaded
}
