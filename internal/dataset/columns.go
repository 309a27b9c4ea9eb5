package dataset

// Column names of the input and output tables.
const (
	ColTitle               = "Title"
	ColDate                = "Date"
	ColLocation            = "Location"
	ColText                = "Text"
	ColURL                 = "URL"
	ColSourceFile          = "SourceFile"
	ColRightWingRelated    = "RightWingRelated"
	ColGeneralCrimeRelated = "GeneralCrimeRelated"
	ColTopic               = "Topic"
	ColKeywordMatch        = "KeywordMatch"
	ColKeywordExtracted    = "KeywordExtracted"
	ColExtractedDate       = "ExtractedDate"
	ColExtractedTime       = "ExtractedTime"
	ColExtractedAge        = "ExtractedAge"
	ColExtractedGender     = "ExtractedGender"
	ColExtractedAction     = "ExtractedAction"
	ColExtractedStreet     = "ExtractedStreet"
)

// RequiredInputColumns must be present in every input table.
var RequiredInputColumns = []string{ColTitle, ColText, ColURL}

// RequiredMasterColumns must be present in an existing master file.
var RequiredMasterColumns = []string{ColTitle, ColURL}

// OutputColumns is the schema of the output table and the master file.
var OutputColumns = []string{
	ColTitle, ColDate, ColLocation, ColText, ColURL, ColSourceFile,
	ColRightWingRelated, ColGeneralCrimeRelated, ColTopic,
	ColKeywordMatch, ColKeywordExtracted,
	ColExtractedDate, ColExtractedTime, ColExtractedAge,
	ColExtractedGender, ColExtractedAction, ColExtractedStreet,
}

var extractionColumns = []string{
	ColExtractedDate, ColExtractedTime, ColExtractedAge,
	ColExtractedGender, ColExtractedAction, ColExtractedStreet,
}

var knownColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(OutputColumns))
	for _, c := range OutputColumns {
		m[c] = struct{}{}
	}
	return m
}()
