// Command parcelhub runs the parcel marketplace API and its operator tasks.
//
//	parcelhub serve                  # start server (STORE_DRIVER or --store)
//	parcelhub route:list             # list API routes
//	parcelhub db:indexes             # create MongoDB indexes
//	parcelhub cascades:list --state failed
package main
