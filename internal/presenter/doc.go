// Package presenter turns domain tasks and their history into the JSON
// shapes returned by the API. Conversion is one-way; requests are decoded
// by the api package.
package presenter
