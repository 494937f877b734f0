package service

import "deepfake-detector/internal/domain/entity"

// ClassifierThreshold: порог классификатора, сравнение строгое.
const ClassifierThreshold = 0.5

// DetectorFloor: уверенность, которую даёт само наличие областей детектора.
// Не зависит ни от числа областей, ни от их уверенности.
const DetectorFloor = 0.5

// Fuse объединяет вероятность классификатора и области детектора в вердикт.
// Достаточно одного положительного сигнала от любой модели.
func Fuse(score float64, regions []entity.Region) entity.Verdict {
	classifierFlag := score > ClassifierThreshold
	detectorFlag := len(regions) > 0

	isDeepfake := classifierFlag || detectorFlag

	floor := 0.0
	if detectorFlag {
		floor = DetectorFloor
	}
	confidence := score
	if floor > confidence {
		confidence = floor
	}

	label := entity.LabelAuthentic
	if isDeepfake {
		label = entity.LabelDeepfake
	}

	return entity.Verdict{
		IsDeepfake: isDeepfake,
		Confidence: confidence,
		Label:      label,
	}
}
