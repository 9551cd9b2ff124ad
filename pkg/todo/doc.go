// Package todo implements the per-user todo collections at the heart of
// tabulist. Records live in each user's flag document and are written one key
// at a time, so creating, replacing, or deleting a todo never disturbs its
// siblings. The global view is recomputed from every user's collection on
// each read; nothing is cached.
package todo
