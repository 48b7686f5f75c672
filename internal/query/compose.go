package query

import (
	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/oxhq/cascade/internal/searchschema"
)

// newFieldDisjunction builds the "token matches any of {name, signature,
// doc_comment, code_body}, boosted per §4.2" sub-query one symbol-search
// token compiles to.
func newFieldDisjunction(token string) bleveQuery.Query {
	boosts := map[string]float64{
		searchschema.FieldName:       searchschema.Boosts.Name,
		searchschema.FieldSignature:  searchschema.Boosts.Signature,
		searchschema.FieldDocComment: searchschema.Boosts.DocComment,
		searchschema.FieldCodeBody:   searchschema.Boosts.CodeBody,
	}
	dq := bleve.NewDisjunctionQuery()
	for _, field := range searchschema.SymbolSearchFields {
		mq := bleve.NewMatchQuery(token)
		mq.SetField(field)
		mq.SetBoost(boosts[field])
		dq.AddQuery(mq)
	}
	return dq
}
