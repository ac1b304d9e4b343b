package pipeline

// Field names one slot of the processing context.
type Field string

const (
	FieldMedia          Field = "media"
	FieldStem           Field = "stem"
	FieldShape          Field = "shape"
	FieldClipInterval   Field = "clipInterval"
	FieldSoundThreshold Field = "soundThreshold"
	FieldDiscardSilence Field = "discardSilence"
	FieldGainFactor     Field = "gainFactor"
	FieldClips          Field = "clips"
	FieldAudioPath      Field = "audioPath"
	FieldDenoisedPath   Field = "denoisedPath"
	FieldTranscriptPath Field = "transcriptPath"
	FieldOutputPath     Field = "outputPath"
	FieldOutputPaths    Field = "outputPaths"
	FieldMetadataPath   Field = "metadataPath"
)

// SeedFields are present on every freshly built context.
var SeedFields = []Field{
	FieldMedia,
	FieldStem,
	FieldShape,
	FieldClipInterval,
	FieldSoundThreshold,
	FieldDiscardSilence,
	FieldGainFactor,
}

type fieldSet map[Field]struct{}

func newFieldSet(fields ...Field) fieldSet {
	set := make(fieldSet, len(fields))
	set.add(fields...)
	return set
}

func (s fieldSet) add(fields ...Field) {
	for _, f := range fields {
		s[f] = struct{}{}
	}
}

func (s fieldSet) has(f Field) bool {
	_, ok := s[f]
	return ok
}

func (s fieldSet) clone() fieldSet {
	out := make(fieldSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}
