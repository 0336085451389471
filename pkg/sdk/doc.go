// Package booksearch is an in-process Go client for the book index.
//
// It runs the same actions as the POST /ask/storage/ endpoint without the
// HTTP hop: every call is validated, translated to Elasticsearch query DSL
// and normalized to a flat list of books.
//
//	client, _ := booksearch.New(ctx, booksearch.WithElasticsearch("http://localhost:9200"))
//	defer client.Close()
//
//	id, _ := client.Append(ctx, booksearch.Book{Title: "Solr in Action", ...})
//	books, _ := client.Fuzzy(ctx, "solr in acton", "title", "summary")
//	avg, _ := client.MetricAggregation(ctx, booksearch.MetricAvg, "num_reviews")
//
// Any action can also be run by name with Do, passing the same parameters
// the HTTP endpoint accepts.
package booksearch
