package parser

// NodeClass is the closed classification of the syntax node kinds the
// analyzers care about. Tree-sitter exposes node kinds as strings; the
// string comparison is confined to Classify so nothing downstream
// dispatches on raw kind text.
type NodeClass int

const (
	ClassOther NodeClass = iota
	ClassSourceFile
	ClassModule
	ClassFunction
	ClassMacro
	ClassStruct
	ClassAbstract
	ClassPrimitive
	ClassAssignment
	ClassConst
	ClassCall
	ClassFieldAccess
	ClassIdentifier
	ClassExport
	ClassImport
	ClassString
	ClassParameterList
	ClassIf
)

// kindClasses maps tree-sitter kind strings to classes. The table carries
// the spellings used across tree-sitter-julia releases, since the grammar
// renamed several nodes between versions.
var kindClasses = map[string]NodeClass{
	"source_file": ClassSourceFile,

	"module_definition":      ClassModule,
	"baremodule_definition":  ClassModule,
	"bare_module_definition": ClassModule,

	"function_definition":       ClassFunction,
	"short_function_definition": ClassFunction,

	"macro_definition": ClassMacro,

	"struct_definition": ClassStruct,

	"abstract_definition":      ClassAbstract,
	"abstract_type_definition": ClassAbstract,

	"primitive_definition":      ClassPrimitive,
	"primitive_type_definition": ClassPrimitive,

	"assignment":            ClassAssignment,
	"assignment_expression": ClassAssignment,

	"const_statement":   ClassConst,
	"const_declaration": ClassConst,
	"const_expression":  ClassConst,

	"call_expression": ClassCall,
	"call":            ClassCall,

	"field_expression": ClassFieldAccess,
	"field_access":     ClassFieldAccess,

	"identifier": ClassIdentifier,

	"export_statement": ClassExport,

	"import_statement": ClassImport,
	"using_statement":  ClassImport,
	"import":           ClassImport,
	"using":            ClassImport,

	"string_literal":          ClassString,
	"triple_string":           ClassString,
	"prefixed_string_literal": ClassString,
	"string":                  ClassString,

	"parameter_list": ClassParameterList,
	"parameters":     ClassParameterList,

	"if_statement":  ClassIf,
	"if_expression": ClassIf,
}

// Classify converts a raw tree-sitter kind string to a NodeClass.
func Classify(kind string) NodeClass {
	return kindClasses[kind]
}

// IsDefinition reports whether class introduces a named definition whose
// name slot occupies the node's first identifier child.
func (c NodeClass) IsDefinition() bool {
	switch c {
	case ClassModule, ClassFunction, ClassMacro, ClassStruct, ClassAbstract, ClassPrimitive, ClassAssignment:
		return true
	}
	return false
}

// IsScopeRoot reports whether class opens a new lexical scope. Only
// function and module bodies introduce scopes; control-flow blocks do not.
func (c NodeClass) IsScopeRoot() bool {
	return c == ClassFunction || c == ClassModule
}
