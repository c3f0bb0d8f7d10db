// Package solrq builds search engine queries with a fluent criteria API,
// compiles them into request parameters and reads large result sets with
// cursor marks.
//
// # Building and compiling queries
//
//	c := solrq.Where("name").Contains("phone").Or("category").Is("mobile")
//	q, _ := solrq.NewQuery(c)
//	_ = q.AddSort("price", solrq.Desc)
//
//	client, _ := solrq.New(solrq.WithSolr("http://localhost:8983/solr", "products"))
//	params, _ := client.Compile(q)   // q=name:*phone* OR category:mobile ...
//	res, _ := client.Search(ctx, q)  // one page plus facet pages
//
// # Iterating everything with a cursor
//
//	type Product struct {
//	    ID   string `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	cur, _ := solrq.NewCursor[Product](client, q)
//	defer cur.Close()
//	_ = cur.Open(ctx)
//	for p, err := range cur.All(ctx) {
//	    ...
//	}
//
// Long exports can be checkpointed to Redis (WithRedis) and resumed by id
// with Client.Export.
package solrq
