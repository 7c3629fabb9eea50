// package http contains the request, response, header and body types,
// which are meant to be exported. the package name is kept short so that
// the root package could alias its types without renaming them.
//
// Request and Response are immutable records embedding a *[Body]; the body
// lazily materializes its payload once and memoizes every view derived
// from it.
package http
