package pgstore

var ListTenantsQuery = listTenantsQuery
