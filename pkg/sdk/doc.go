// Package patentdex embeds the patent enrichment, embedding and similarity search
// core in a Go program.
//
// The client owns a record store (Redis, Valkey, SQLite or in-memory) and calls
// the generation and embedding capabilities supplied by the caller:
//
//	client, _ := patentdex.New(ctx,
//	    patentdex.WithSQLite("patents.db"),
//	    patentdex.WithGenerator(gen),
//	    patentdex.WithEmbedder(emb),
//	)
//	defer client.Close()
//
//	_, _ = client.AddDocuments(ctx, docs)
//	_, _ = client.Drain(ctx)
//	hits, _ := client.Search(ctx, "optical fiber coupler", 10)
//
// Either capability may be omitted. The stage that needs it then reports every item
// as failed with ErrModelUnavailable, and Search returns the same error.
package patentdex
