package testutil

import "github.com/hupe1980/qbucket/source/memory"

// ProductRecords returns the nine-record product fixture with categorical
// attributes company and category and numeric attribute listPrice.
func ProductRecords() []memory.Record {
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

// RatingRecords returns a four-record fixture with two numeric attributes.
func RatingRecords() []memory.Record {
	return []memory.Record{
		{"productName": "product1", "rating": 1.5, "price": 100, "category": "cat1"},
		{"productName": "product2", "rating": 2.1, "price": 200, "category": "cat1"},
		{"productName": "product3", "rating": 3.3, "price": 300, "category": "cat2"},
		{"productName": "product4", "rating": 4.8, "price": 400, "category": "cat2"},
	}
}

// TaggedRecords returns records whose tags attribute is a collection.
func TaggedRecords() []memory.Record {
	return []memory.Record{
		{"tags": []any{"sale", "new"}, "size": "small", "price": 10},
		{"tags": []any{"new"}, "size": "large", "price": 20},
		{"tags": []any{"sale"}, "size": "small", "price": 30},
		{"tags": []string{"clearance", "sale"}, "size": "large", "price": 40},
	}
}
