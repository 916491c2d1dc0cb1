package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// Tag is the base_tag discriminant from spec §4.5: every Value implements
// exactly one of these, and generator code dispatches on it instead of on a
// virtual method hierarchy (spec §9's "tagged sum type plus capability
// interfaces" redesign).
type Tag int

const (
	TagNumber32 Tag = iota
	TagNumber64
	TagBool
	TagString
	TagList
	TagFunc
	TagVoid
	TagReturn
)

func (t Tag) String() string {
	switch t {
	case TagNumber32:
		return "Number32"
	case TagNumber64:
		return "Number64"
	case TagBool:
		return "Bool"
	case TagString:
		return "String"
	case TagList:
		return "List"
	case TagFunc:
		return "Func"
	case TagVoid:
		return "Void"
	case TagReturn:
		return "Return"
	default:
		return "UnknownTag"
	}
}

// Value is the common handle contract every lowered expression satisfies:
// a value, an optional addressable slot, and the LLVM types needed to
// spill or reload it. Capability methods (Printable, Lengthable, Callable,
// Assignable) are implemented only by the tags that support them.
type Value interface {
	Tag() Tag
	// Load returns the current SSA value, re-reading the backing slot if
	// one is present.
	Load(b *Builder) llvm.Value
	// Slot returns the backing alloca and whether one exists.
	Slot() (llvm.Value, bool)
	LLVMType() llvm.Type
	LLVMPtrType() llvm.Type
}

// Printable is implemented by every tag whose print() lowering spec §4.5
// defines.
type Printable interface {
	Print(b *Builder) error
}

// Lengthable is implemented by String and List.
type Lengthable interface {
	Length(b *Builder) (Value, error)
}

// Callable is implemented by Func.
type Callable interface {
	Call(b *Builder, args []Value) (Value, error)
}

// Assignable is implemented by every tag that can be the target of an
// AssignStmt; it stores rhs's loaded value into the receiver's slot as is.
// No implementation widens or converts: each accepts only the rhs tags its
// own AssignFrom checks for.
type Assignable interface {
	AssignFrom(b *Builder, rhs Value) error
}

// ---- Number32 ----

// Number32 holds an i32, addressable when Slot is non-nil (spec §4.5).
type Number32 struct {
	val     llvm.Value
	slot    llvm.Value
	hasSlot bool
}

func NewNumber32(val llvm.Value) *Number32                 { return &Number32{val: val} }
func NewNumber32Slot(slot llvm.Value) *Number32             { return &Number32{slot: slot, hasSlot: true} }
func (n *Number32) Tag() Tag                                { return TagNumber32 }
func (n *Number32) Slot() (llvm.Value, bool)                { return n.slot, n.hasSlot }
func (n *Number32) LLVMType() llvm.Type                     { return llvm.Int32Type() }
func (n *Number32) LLVMPtrType() llvm.Type                  { return llvm.PointerType(llvm.Int32Type(), 0) }
func (n *Number32) Load(b *Builder) llvm.Value {
	if n.hasSlot {
		return b.irb.CreateLoad(n.slot, "")
	}
	return n.val
}

func (n *Number32) Print(b *Builder) error {
	return b.printFormatted("%d\n", n.Load(b))
}

func (n *Number32) AssignFrom(b *Builder, rhs Value) error {
	if rhs.Tag() != TagNumber32 && rhs.Tag() != TagBool {
		return newErr(InternalInvariant, fmt.Sprintf("cannot assign %s into an i32 slot", rhs.Tag()))
	}
	slot, ok := n.Slot()
	if !ok {
		return newErr(InternalInvariant, "assignment target has no slot")
	}
	b.irb.CreateStore(rhs.Load(b), slot)
	return nil
}

// ---- Number64 ----

// Number64 mirrors Number32 but over i64, only assignable from I64 (spec
// §4.5: "assignable only from I64").
type Number64 struct {
	val     llvm.Value
	slot    llvm.Value
	hasSlot bool
}

func NewNumber64(val llvm.Value) *Number64     { return &Number64{val: val} }
func NewNumber64Slot(slot llvm.Value) *Number64 { return &Number64{slot: slot, hasSlot: true} }
func (n *Number64) Tag() Tag                    { return TagNumber64 }
func (n *Number64) Slot() (llvm.Value, bool)    { return n.slot, n.hasSlot }
func (n *Number64) LLVMType() llvm.Type         { return llvm.Int64Type() }
func (n *Number64) LLVMPtrType() llvm.Type      { return llvm.PointerType(llvm.Int64Type(), 0) }
func (n *Number64) Load(b *Builder) llvm.Value {
	if n.hasSlot {
		return b.irb.CreateLoad(n.slot, "")
	}
	return n.val
}

func (n *Number64) Print(b *Builder) error {
	return b.printFormatted("%lld\n", n.Load(b))
}

func (n *Number64) AssignFrom(b *Builder, rhs Value) error {
	if rhs.Tag() != TagNumber64 {
		return newErr(InternalInvariant, fmt.Sprintf("cannot assign %s into an i64 slot", rhs.Tag()))
	}
	slot, ok := n.Slot()
	if !ok {
		return newErr(InternalInvariant, "assignment target has no slot")
	}
	b.irb.CreateStore(rhs.Load(b), slot)
	return nil
}

// ---- Bool ----

// Bool carries a slot when it backs a variable, parameter or spilled call
// result (NewBoolSlot); a Bool built from a literal, comparison or logical
// operator (NewBool) holds only its SSA value and has no slot.
type Bool struct {
	val  llvm.Value
	slot llvm.Value
}

func NewBool(val llvm.Value) *Bool         { return &Bool{val: val} }
func NewBoolSlot(slot llvm.Value) *Bool     { return &Bool{slot: slot} }
func (n *Bool) Tag() Tag                    { return TagBool }
func (n *Bool) Slot() (llvm.Value, bool)    { return n.slot, !n.slot.IsNil() }
func (n *Bool) LLVMType() llvm.Type         { return llvm.Int1Type() }
func (n *Bool) LLVMPtrType() llvm.Type      { return llvm.PointerType(llvm.Int1Type(), 0) }
func (n *Bool) Load(b *Builder) llvm.Value {
	if !n.slot.IsNil() {
		return b.irb.CreateLoad(n.slot, "")
	}
	return n.val
}

func (n *Bool) Print(b *Builder) error {
	helper, err := b.helper("boolToStrZig")
	if err != nil {
		return err
	}
	str := b.irb.CreateCall(helper.Fn, []llvm.Value{n.Load(b)}, "")
	return b.printFormatted("%s\n", str)
}

func (n *Bool) AssignFrom(b *Builder, rhs Value) error {
	if rhs.Tag() != TagBool {
		return newErr(InternalInvariant, fmt.Sprintf("cannot assign %s into a bool slot", rhs.Tag()))
	}
	slot, ok := n.Slot()
	if !ok {
		return newErr(InternalInvariant, "assignment target has no slot")
	}
	b.irb.CreateStore(rhs.Load(b), slot)
	return nil
}

// ---- String ----

// String wraps a StringType* produced by the runtime helpers.
type String struct {
	val     llvm.Value
	slot    llvm.Value
	hasSlot bool
}

func NewString(val llvm.Value) *String     { return &String{val: val} }
func NewStringSlot(slot llvm.Value) *String { return &String{slot: slot, hasSlot: true} }
func (s *String) Tag() Tag                  { return TagString }
func (s *String) Slot() (llvm.Value, bool)  { return s.slot, s.hasSlot }
func (s *String) LLVMType() llvm.Type       { return llvm.PointerType(llvm.Int8Type(), 0) }
func (s *String) LLVMPtrType() llvm.Type {
	return llvm.PointerType(llvm.PointerType(llvm.Int8Type(), 0), 0)
}
func (s *String) Load(b *Builder) llvm.Value {
	if s.hasSlot {
		return b.irb.CreateLoad(s.slot, "")
	}
	return s.val
}

func (s *String) Print(b *Builder) error {
	helper, err := b.helper("stringPrint")
	if err != nil {
		return err
	}
	b.irb.CreateCall(helper.Fn, []llvm.Value{s.Load(b)}, "")
	return nil
}

func (s *String) Length(b *Builder) (Value, error) {
	helper, err := b.helper("lenStringList")
	if err != nil {
		return nil, err
	}
	v := b.irb.CreateCall(helper.Fn, []llvm.Value{s.Load(b)}, "")
	return NewNumber32(v), nil
}

// Add lowers String '+' String via the stringAdd runtime helper (spec §4.5).
func (s *String) Add(b *Builder, rhs Value) (Value, error) {
	helper, err := b.helper("stringAdd")
	if err != nil {
		return nil, err
	}
	v := b.irb.CreateCall(helper.Fn, []llvm.Value{s.Load(b), rhs.Load(b)}, "")
	return NewString(v), nil
}

// Equal lowers String '==' String via isStringEqual, resolving spec §9's
// open question in favor of wiring the helper.
func (s *String) Equal(b *Builder, rhs Value) (Value, error) {
	helper, err := b.helper("isStringEqual")
	if err != nil {
		return nil, err
	}
	v := b.irb.CreateCall(helper.Fn, []llvm.Value{s.Load(b), rhs.Load(b)}, "")
	return NewBool(v), nil
}

func (s *String) AssignFrom(b *Builder, rhs Value) error {
	if rhs.Tag() != TagString {
		return newErr(InternalInvariant, fmt.Sprintf("cannot assign %s into a string slot", rhs.Tag()))
	}
	slot, ok := s.Slot()
	if !ok {
		return newErr(InternalInvariant, "assignment target has no slot")
	}
	b.irb.CreateStore(rhs.Load(b), slot)
	return nil
}

// ---- List ----

// ListElem identifies the element kind a List(T) handle carries, used to
// pick the per-T runtime helper family.
type ListElem int

const (
	ListElemNumber32 ListElem = iota
	ListElemString
	ListElemOther
)

// List wraps a list value together with its element kind so print/length
// can dispatch to the matching helper family (spec §4.5).
type List struct {
	val  llvm.Value
	slot llvm.Value
	inner ListElem
}

func NewList(val llvm.Value, inner ListElem) *List { return &List{val: val, inner: inner} }
func NewListSlot(slot llvm.Value, inner ListElem) *List {
	return &List{slot: slot, inner: inner}
}
func (l *List) Tag() Tag                 { return TagList }
func (l *List) Slot() (llvm.Value, bool) { return l.slot, !l.slot.IsNil() }
func (l *List) LLVMType() llvm.Type      { return llvm.PointerType(llvm.Int8Type(), 0) }
func (l *List) LLVMPtrType() llvm.Type {
	return llvm.PointerType(llvm.PointerType(llvm.Int8Type(), 0), 0)
}
func (l *List) Load(b *Builder) llvm.Value {
	if !l.slot.IsNil() {
		return b.irb.CreateLoad(l.slot, "")
	}
	return l.val
}

func (l *List) Print(b *Builder) error {
	name, err := l.helperName("print")
	if err != nil {
		return err
	}
	helper, err := b.helper(name)
	if err != nil {
		return err
	}
	b.irb.CreateCall(helper.Fn, []llvm.Value{l.Load(b)}, "")
	return nil
}

func (l *List) Length(b *Builder) (Value, error) {
	name, err := l.helperName("len")
	if err != nil {
		return nil, err
	}
	helper, err := b.helper(name)
	if err != nil {
		return nil, err
	}
	v := b.irb.CreateCall(helper.Fn, []llvm.Value{l.Load(b)}, "")
	return NewNumber32(v), nil
}

// Push lowers a push onto a list<i32>; spec §4.5 notes pushInt32 is the
// only element-push helper wired.
func (l *List) Push(b *Builder, elem Value) error {
	if l.inner != ListElemNumber32 {
		return newErr(UnsupportedListElement, "push is only wired for list<i32>")
	}
	helper, err := b.helper("pushInt32")
	if err != nil {
		return err
	}
	b.irb.CreateCall(helper.Fn, []llvm.Value{l.Load(b), elem.Load(b)}, "")
	return nil
}

func (l *List) helperName(op string) (string, error) {
	switch l.inner {
	case ListElemString:
		if op == "print" {
			return "printStringList", nil
		}
		return "lenStringList", nil
	case ListElemNumber32:
		if op == "print" {
			return "printInt32List", nil
		}
		return "lenInt32List", nil
	default:
		return "", newErr(UnsupportedListElement, "list element type has no runtime helper family")
	}
}

// ---- Func ----

// Func wraps a declared function's SSA value and LLVM type for calling.
type Func struct {
	fn         llvm.Value
	fnType     llvm.Type
	returnType Value // zero-value handle used only to determine the tag/type of the result
	isVoid     bool
}

func NewFunc(fn llvm.Value, fnType llvm.Type, returnTemplate Value, isVoid bool) *Func {
	return &Func{fn: fn, fnType: fnType, returnType: returnTemplate, isVoid: isVoid}
}
func (f *Func) Tag() Tag                 { return TagFunc }
func (f *Func) Slot() (llvm.Value, bool) { return llvm.Value{}, false }
func (f *Func) LLVMType() llvm.Type      { return f.fnType }
func (f *Func) LLVMPtrType() llvm.Type   { return llvm.PointerType(f.fnType, 0) }
func (f *Func) Load(b *Builder) llvm.Value {
	return f.fn
}

// Call loads each argument (via its slot, if present), issues the LLVM
// call, and for non-Void returns spills the result into a fresh slot,
// wrapping it in the return type's handle (spec §4.5).
func (f *Func) Call(b *Builder, args []Value) (Value, error) {
	raw := make([]llvm.Value, len(args))
	for i, a := range args {
		raw[i] = a.Load(b)
	}
	ret := b.irb.CreateCall(f.fn, raw, "")
	if f.isVoid {
		return &Void{}, nil
	}
	return b.spill(ret, f.returnType)
}

// ---- Void / Return ----

// Void is a placeholder handle for statements and void-returning calls; it
// carries no SSA value (spec §4.5).
type Void struct{}

func (Void) Tag() Tag                  { return TagVoid }
func (Void) Slot() (llvm.Value, bool)  { return llvm.Value{}, false }
func (Void) LLVMType() llvm.Type       { return llvm.VoidType() }
func (Void) LLVMPtrType() llvm.Type    { return llvm.Type{} }
func (Void) Load(b *Builder) llvm.Value { return llvm.Value{} }

// Return is a bookkeeping marker the visitor produces after emitting a
// ret, so callers lowering a Block can tell that the current basic block
// has already been terminated (spec §4.5, §4.6).
type Return struct{}

func (Return) Tag() Tag                  { return TagReturn }
func (Return) Slot() (llvm.Value, bool)  { return llvm.Value{}, false }
func (Return) LLVMType() llvm.Type       { return llvm.VoidType() }
func (Return) LLVMPtrType() llvm.Type    { return llvm.Type{} }
func (Return) Load(b *Builder) llvm.Value { return llvm.Value{} }
