package qbucket_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/blobstore"
	"github.com/hupe1980/qbucket/catalog"
	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/source/memory"
)

func exampleRecords() []memory.Record {
	return []memory.Record{
		{"company": "ADIDAS", "category": "Shoes", "listPrice": 2000},
		{"company": "ADIDAS", "category": "Bracelets", "listPrice": 500},
		{"company": "NIKE", "category": "Shoes", "listPrice": 300},
		{"company": "NIKE", "category": "Clothes", "listPrice": 100},
		{"company": "PUMA", "category": "Clothes", "listPrice": 50},
		{"company": "PUMA", "category": "Shoes", "listPrice": 25},
		{"company": "PUMA", "category": "Shoes", "listPrice": 12},
		{"company": "NIKE", "category": "Shoes", "listPrice": 6},
		{"company": "NIKE", "category": "Shoes", "listPrice": 3},
	}
}

// ExampleTrainFromRecords demonstrates training and querying quartile boundaries.
func ExampleTrainFromRecords() {
	ctx := context.Background()

	ix, err := qbucket.TrainFromRecords(ctx, exampleRecords(),
		[]string{"company", "category"}, []string{"listPrice"})
	if err != nil {
		log.Fatal(err)
	}

	median, _ := ix.Get(ctx, "listPrice", 2, qbucket.Below)
	clothes := qbucket.WithFilters(filter.New(filter.Pair{Key: "category", Value: "Clothes"}))
	low, _ := ix.Get(ctx, "listPrice", 1, qbucket.Above, clothes)
	high, _ := ix.Get(ctx, "listPrice", 4, qbucket.Below, clothes)

	fmt.Println(median, low, high)
	// Output: 50 50 100
}

// ExampleIndex_Lookup demonstrates fallback to a stored filter subset.
func ExampleIndex_Lookup() {
	ctx := context.Background()

	ix, err := qbucket.TrainFromRecords(ctx, exampleRecords(),
		[]string{"company", "category"}, []string{"listPrice"}, qbucket.WithMaxDepth(1))
	if err != nil {
		log.Fatal(err)
	}

	r, err := ix.Lookup(ctx, "listPrice", 1, qbucket.Above, qbucket.WithFilters(filter.New(
		filter.Pair{Key: "category", Value: "Clothes"},
		filter.Pair{Key: "company", Value: "PUMA"},
	)))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(r.Key, r.Value)
	// Output: listPrice#company_=PUMA 12
}

// ExampleIndex_Save demonstrates persisting an index in a catalog.
func ExampleIndex_Save() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ix, err := qbucket.TrainFromRecords(ctx, exampleRecords(),
		[]string{"company", "category"}, []string{"listPrice"})
	if err != nil {
		log.Fatal(err)
	}

	m, err := ix.Save(ctx, store, catalog.Meta{Description: "products"})
	if err != nil {
		log.Fatal(err)
	}

	loaded, err := qbucket.Open(ctx, store)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.IndexPath, loaded.Len() == ix.Len())
	// Output: indexes/IDX-000001.qbi true
}
