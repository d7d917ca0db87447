package expr

// OpKind identifies one of the binary operators.
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// Assoc is the direction in which operators of equal precedence group.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "none"
	}
}

// OperatorInfo is the static metadata of an operator.
type OperatorInfo struct {
	Name   string
	Symbol rune
	Prec   int
	Assoc  Assoc
}

// operatorTable is never mutated after initialization.
var operatorTable = map[OpKind]OperatorInfo{
	OpAdd: {Name: "ADD", Symbol: '+', Prec: 1, Assoc: AssocLeft},
	OpSub: {Name: "SUB", Symbol: '-', Prec: 1, Assoc: AssocLeft},
	OpMul: {Name: "MUL", Symbol: '*', Prec: 2, Assoc: AssocLeft},
	OpDiv: {Name: "DIV", Symbol: '/', Prec: 2, Assoc: AssocLeft},
	OpPow: {Name: "POW", Symbol: '^', Prec: 3, Assoc: AssocRight},
}

// symbolTable maps single characters to the token they produce.
var symbolTable = map[rune]Token{
	'+': {Type: TokenOperator, Op: OpAdd},
	'-': {Type: TokenOperator, Op: OpSub},
	'*': {Type: TokenOperator, Op: OpMul},
	'/': {Type: TokenOperator, Op: OpDiv},
	'^': {Type: TokenOperator, Op: OpPow},
	'(': {Type: TokenLParen},
	')': {Type: TokenRParen},
}

// Operators returns every operator kind in declaration order.
func Operators() []OpKind {
	return []OpKind{OpAdd, OpSub, OpMul, OpDiv, OpPow}
}

// Info returns the metadata for op.
func Info(op OpKind) OperatorInfo {
	return operatorTable[op]
}

// Precedence returns the rank of op. Higher binds tighter.
func Precedence(op OpKind) int {
	return operatorTable[op].Prec
}

// Associativity returns the associativity of op.
func Associativity(op OpKind) Assoc {
	return operatorTable[op].Assoc
}

// String returns the output name of the operator (ADD, SUB, ...).
func (op OpKind) String() string {
	if info, ok := operatorTable[op]; ok {
		return info.Name
	}
	return "UNKNOWN"
}

// Symbol returns the infix character of the operator.
func (op OpKind) Symbol() rune {
	return operatorTable[op].Symbol
}
