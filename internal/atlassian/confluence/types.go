package confluence

// Page represents a Confluence page.
type Page struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Title    string    `json:"title"`
	SpaceID  string    `json:"spaceId,omitempty"`
	ParentID string    `json:"parentId,omitempty"`
	Version  *Version  `json:"version,omitempty"`
	Body     *PageBody `json:"body,omitempty"`
}

// Version represents a page version.
type Version struct {
	Number    int    `json:"number"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// PageBody holds the page content representations.
type PageBody struct {
	Storage *BodyRepresentation `json:"storage,omitempty"`
	View    *BodyRepresentation `json:"view,omitempty"`
}

// BodyRepresentation is one rendering of page content.
type BodyRepresentation struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// Space represents a Confluence space.
type Space struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Comment represents a page comment.
type Comment struct {
	ID      string    `json:"id"`
	Status  string    `json:"status"`
	Title   string    `json:"title,omitempty"`
	Body    *PageBody `json:"body,omitempty"`
	Version *Version  `json:"version,omitempty"`
}
