// Package category holds the closed shopping category catalogue and the
// classifier that assigns a category to a task.
//
// Classification is a pure function of its inputs: an explicit category
// (matched against IDs and labels) wins over keyword inference, and keyword
// inference walks KeywordTable in order, so the table order decides between
// categories when a title matches several of them.
package category
