package niceboard

// envelope is the board's response wrapper. Every endpoint answers with
// {error, message, results}; results is only meaningful when error is false.
type envelope[T any] struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Results T      `json:"results"`
}

// Entity is a named board object: company, location, job type or category.
type Entity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type companiesResult struct {
	TotalCount int      `json:"total_count"`
	Companies  []Entity `json:"companies"`
}

type companyResult struct {
	Company Entity `json:"company"`
}

type locationsResult struct {
	TotalCount int      `json:"total_count"`
	Locations  []Entity `json:"locations"`
}

type locationResult struct {
	Location Entity `json:"location"`
}

type jobTypesResult struct {
	TotalCount int      `json:"total_count"`
	JobTypes   []Entity `json:"jobtypes"`
}

type categoriesResult struct {
	TotalCount int      `json:"total_count"`
	Categories []Entity `json:"categories"`
}

type categoryResult struct {
	Category Entity `json:"category"`
}

type listedJob struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
}

type jobsResult struct {
	TotalCount int         `json:"total_count"`
	Jobs       []listedJob `json:"jobs"`
}

type jobResult struct {
	Job struct {
		ID int `json:"id"`
	} `json:"job"`
}

// JobPayload is the body of POST /jobs. Exactly one application method is
// set: ApplyByForm, ApplyURL or ApplyEmail.
type JobPayload struct {
	CompanyID       int    `json:"company_id"`
	JobTypeID       int    `json:"jobtype_id"`
	LocationID      int    `json:"location_id,omitempty"`
	CategoryID      int    `json:"category_id,omitempty"`
	Title           string `json:"title"`
	DescriptionHTML string `json:"description_html"`

	ApplyByForm bool   `json:"apply_by_form"`
	ApplyURL    string `json:"apply_url,omitempty"`
	ApplyEmail  string `json:"apply_email,omitempty"`

	IsPublished bool `json:"is_published"`
	RemoteOnly  bool `json:"remote_only"`

	SalaryMin       float64 `json:"salary_min,omitempty"`
	SalaryMax       float64 `json:"salary_max,omitempty"`
	SalaryCurrency  string  `json:"salary_currency,omitempty"`
	SalaryTimeframe string  `json:"salary_timeframe,omitempty"`
}

type namePayload struct {
	Name string `json:"name"`
}
