// Package gqlrequest parses GraphQL documents to derive shape metadata, a
// stable hash and the inline-literal policy the trade gateway enforces.
package gqlrequest

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// Analysis stores parsed and derived GraphQL document metadata.
type Analysis struct {
	Query                  string
	RequestedOperationName string

	Document  *ast.Document
	Fragments map[string]*ast.FragmentDefinition
	Operation *ast.OperationDefinition

	OperationCount int
	OperationName  string
	OperationType  string
	RootFields     []string

	FieldCount        int
	SelectionDepth    int
	VariableCount     int
	VariableRefCount  int
	DocumentSizeBytes int

	CanonicalOperation string
	OperationHash      string

	ParseError      error
	SelectionError  error
	CanonicalizeErr error
}

// Err returns the first error recorded during analysis.
func (a *Analysis) Err() error {
	switch {
	case a == nil:
		return fmt.Errorf("no analysis")
	case a.ParseError != nil:
		return fmt.Errorf("failed to parse query: %w", a.ParseError)
	case a.SelectionError != nil:
		return a.SelectionError
	case a.CanonicalizeErr != nil:
		return a.CanonicalizeErr
	}
	return nil
}

// AnalyzeEnvelope analyzes the query carried by a request envelope.
func AnalyzeEnvelope(env Envelope) *Analysis {
	return Analyze(env.Query, env.OperationName)
}

// Analyze parses query and selects the operation named operationName, or the
// only operation when the name is empty.
func Analyze(query, operationName string) *Analysis {
	analysis := &Analysis{
		Query:                  query,
		RequestedOperationName: operationName,
		Fragments:              map[string]*ast.FragmentDefinition{},
		DocumentSizeBytes:      len(query),
	}

	if strings.TrimSpace(query) == "" {
		analysis.ParseError = fmt.Errorf("query is empty")
		return analysis
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(query),
			Name: "graphql",
		}),
	})
	if err != nil {
		analysis.ParseError = err
		return analysis
	}

	analysis.Document = doc
	analysis.Fragments = buildFragmentMap(doc)

	op, count, selectionErr := selectOperation(doc, operationName)
	analysis.OperationCount = count
	if selectionErr != nil {
		analysis.SelectionError = selectionErr
		return analysis
	}

	analysis.Operation = op
	analysis.OperationName = effectiveOperationName(op)
	analysis.OperationType = string(op.Operation)
	analysis.VariableCount = len(op.VariableDefinitions)
	analysis.RootFields = rootFieldNames(op.SelectionSet)
	analysis.VariableRefCount = countVariableRefs(doc)

	fields, depth := countFieldsAndDepth(op.SelectionSet, analysis.Fragments, 1, map[string]bool{}, map[string]bool{})
	analysis.FieldCount = fields
	analysis.SelectionDepth = depth

	canonical, hash, canonicalErr := canonicalOperationAndHash(op, analysis.Fragments)
	if canonicalErr != nil {
		analysis.CanonicalizeErr = canonicalErr
		return analysis
	}
	analysis.CanonicalOperation = canonical
	analysis.OperationHash = hash

	return analysis
}

func buildFragmentMap(doc *ast.Document) map[string]*ast.FragmentDefinition {
	fragments := map[string]*ast.FragmentDefinition{}
	if doc == nil {
		return fragments
	}
	for _, def := range doc.Definitions {
		fragment, ok := def.(*ast.FragmentDefinition)
		if !ok || fragment == nil || fragment.Name == nil || fragment.Name.Value == "" {
			continue
		}
		fragments[fragment.Name.Value] = fragment
	}
	return fragments
}

func selectOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, int, error) {
	if doc == nil {
		return nil, 0, fmt.Errorf("document is nil")
	}

	operations := make([]*ast.OperationDefinition, 0)
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if ok && op != nil {
			operations = append(operations, op)
		}
	}

	if operationName != "" {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == operationName {
				return op, len(operations), nil
			}
		}
		return nil, len(operations), fmt.Errorf("unknown operation named %q", operationName)
	}

	switch len(operations) {
	case 1:
		return operations[0], 1, nil
	case 0:
		return nil, 0, fmt.Errorf("document does not include an operation")
	default:
		return nil, len(operations), fmt.Errorf("operationName is required when document has multiple operations")
	}
}

func rootFieldNames(selectionSet *ast.SelectionSet) []string {
	if selectionSet == nil {
		return nil
	}
	names := make([]string, 0, len(selectionSet.Selections))
	for _, selection := range selectionSet.Selections {
		if field, ok := selection.(*ast.Field); ok && field.Name != nil {
			names = append(names, field.Name.Value)
		}
	}
	return names
}

func countFieldsAndDepth(selectionSet *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, currentDepth int, visited, inFlight map[string]bool) (fields, maxDepth int) {
	if selectionSet == nil {
		return 0, currentDepth - 1
	}

	maxDepth = currentDepth
	for _, selection := range selectionSet.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			fields++
			if sel.SelectionSet != nil {
				nestedFields, nestedDepth := countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth+1, visited, inFlight)
				fields += nestedFields
				maxDepth = max(maxDepth, nestedDepth)
			}
		case *ast.InlineFragment:
			nestedFields, nestedDepth := countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth, visited, inFlight)
			fields += nestedFields
			maxDepth = max(maxDepth, nestedDepth)
		case *ast.FragmentSpread:
			name := ""
			if sel.Name != nil {
				name = sel.Name.Value
			}
			if name == "" || inFlight[name] || visited[name] {
				continue
			}
			inFlight[name] = true
			visited[name] = true
			if fragment, ok := fragments[name]; ok && fragment != nil {
				nestedFields, nestedDepth := countFieldsAndDepth(fragment.SelectionSet, fragments, currentDepth, visited, inFlight)
				fields += nestedFields
				maxDepth = max(maxDepth, nestedDepth)
			}
			delete(inFlight, name)
		}
	}

	return fields, maxDepth
}

// countVariableRefs counts $name references in arguments anywhere in the
// document, including fragments and directives.
func countVariableRefs(doc *ast.Document) int {
	count := 0
	var walkValue func(v ast.Value)
	walkValue = func(v ast.Value) {
		switch val := v.(type) {
		case *ast.Variable:
			count++
		case *ast.ListValue:
			for _, item := range val.Values {
				walkValue(item)
			}
		case *ast.ObjectValue:
			for _, field := range val.Fields {
				if field != nil {
					walkValue(field.Value)
				}
			}
		}
	}
	walkDirectives := func(dirs []*ast.Directive) {
		for _, dir := range dirs {
			if dir == nil {
				continue
			}
			for _, arg := range dir.Arguments {
				if arg != nil {
					walkValue(arg.Value)
				}
			}
		}
	}
	var walkSelections func(set *ast.SelectionSet)
	walkSelections = func(set *ast.SelectionSet) {
		if set == nil {
			return
		}
		for _, selection := range set.Selections {
			switch sel := selection.(type) {
			case *ast.Field:
				for _, arg := range sel.Arguments {
					if arg != nil {
						walkValue(arg.Value)
					}
				}
				walkDirectives(sel.Directives)
				walkSelections(sel.SelectionSet)
			case *ast.InlineFragment:
				walkDirectives(sel.Directives)
				walkSelections(sel.SelectionSet)
			case *ast.FragmentSpread:
				walkDirectives(sel.Directives)
			}
		}
	}

	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			walkDirectives(d.Directives)
			walkSelections(d.SelectionSet)
		case *ast.FragmentDefinition:
			walkDirectives(d.Directives)
			walkSelections(d.SelectionSet)
		}
	}
	return count
}
