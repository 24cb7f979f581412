package model

// CatalogEntry is one flattened, denormalized row of the catalog cache
// document: the video record enriched with owner display data.
type CatalogEntry struct {
	VideoRecord
	DisplayName  string `json:"display_name"`
	HasThumbnail bool   `json:"has_thumbnail"`
}
