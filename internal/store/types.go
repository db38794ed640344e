package store

import "time"

// File is a row in the files table.
type File struct {
	ID          int64
	Path        string
	LastIndexed time.Time
}

// Symbol is a row in the symbols table.
type Symbol struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	ScopeID   int
	Signature string
	Doc       string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Reference is a row in the refs table.
type Reference struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// TypeDef is a row in the typedefs table.
type TypeDef struct {
	ID        int64
	Module    string
	Name      string
	Kind      string
	FileID    int64
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Signature is a row in the signatures table, with its parameters.
type Signature struct {
	ID         int64
	Module     string
	Name       string
	ReturnType string
	Doc        string
	FileID     int64
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	Params     []Param
}

// Param is a row in the signature_params table.
type Param struct {
	ID          int64
	SignatureID int64
	Position    int
	Name        string
	Type        string
}

// TableCounts summarizes row counts per table.
type TableCounts struct {
	Files      int `json:"files"`
	Symbols    int `json:"symbols"`
	References int `json:"references"`
	TypeDefs   int `json:"typedefs"`
	Signatures int `json:"signatures"`
	Exports    int `json:"exports"`
	Modules    int `json:"modules"`
	Scopes     int `json:"scopes"`
}
