package engine

// The plain link engines: search starts and ends with a templated URL, no
// pre-work and no deep lookup.

// NewGoogle creates the Google reverse image search engine.
func NewGoogle() Base {
	return NewBase(Descriptor{
		Name:        "Google",
		ProviderURL: "https://www.google.com",
		Description: "Google reverse image search across the general web.",
		Recommendation: []string{
			"Western art",
			"Photos of real places and people",
		},
		Types:       []string{"General"},
		URLTemplate: "https://www.google.com/searchbyimage?safe=off&image_url=%s",
	})
}

// NewBing creates the Bing visual search engine.
func NewBing() Base {
	return NewBase(Descriptor{
		Name:        "Bing",
		ProviderURL: "https://www.bing.com",
		Description: "Bing visual search, decent at products and landmarks.",
		Recommendation: []string{
			"Products",
			"Landmarks",
		},
		Types:       []string{"General"},
		URLTemplate: "https://www.bing.com/images/search?q=imgurl:%s&view=detailv2&iss=sbi",
	})
}

// NewYandex creates the Yandex image search engine.
func NewYandex() Base {
	return NewBase(Descriptor{
		Name:        "Yandex",
		ProviderURL: "https://yandex.com",
		Description: "Yandex image search, strong at faces and cropped images.",
		Recommendation: []string{
			"Faces",
			"Cropped or edited images",
		},
		Types:       []string{"General"},
		URLTemplate: "https://yandex.com/images/search?rpt=imageview&url=%s",
	})
}
