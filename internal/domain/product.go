package domain

// LastModifiedLayout is the ISO-8601 form written to lastModified
const LastModifiedLayout = "2006-01-02T15:04:05.000Z07:00"

// Product represents a product in the catalog
type Product struct {
	ID           string `json:"id" dynamodbav:"id"`
	Name         string `json:"name" dynamodbav:"name"`
	ImageURL     string `json:"imageURL" dynamodbav:"imageURL"`
	LastModified string `json:"lastModified" dynamodbav:"lastModified"`
}
