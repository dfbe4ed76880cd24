// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"github.com/ManuGH/leadcam/internal/platform"
	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{language.English, language.Russian}

var languageMatcher = language.NewMatcher(supportedLanguages)

// ParseLanguage resolves a preference such as "ru-RU" or an Accept-Language
// value to a supported catalog language. Unknown input yields English.
func ParseLanguage(pref string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

type catalog struct {
	title    string
	tagline  string
	form     string
	parent   string
	child    string
	age      string
	location string
	coords   string
	mapLink  string

	leadHeading string
	created     string

	// Keyed by platform family; %[1]s is the filename. The file variants
	// are used for anything that is not video, such as lead summaries.
	save       map[platform.Family]string
	manual     map[platform.Family]string
	fileSave   map[platform.Family]string
	fileManual map[platform.Family]string
}

func catalogFor(tag language.Tag) *catalog {
	_, idx, _ := languageMatcher.Match(tag)
	if supportedLanguages[idx] == language.Russian {
		return &ruCatalog
	}
	return &enCatalog
}

var enCatalog = catalog{
	title:    "LeadCam video",
	tagline:  "Video recorded with LeadCam",
	form:     "Lead details:",
	parent:   "Parent",
	child:    "Child",
	age:      "Age",
	location: "Recorded at:",
	coords:   "Coordinates",
	mapLink:  "Map",

	leadHeading: "Lead record",
	created:     "Created",

	save: map[platform.Family]string{
		platform.FamilyIOS: "The video %[1]q opened in a new tab.\n" +
			"1. Tap the Share button at the bottom of the screen.\n" +
			"2. Choose \"Save Video\" to store it in Photos.\n" +
			"3. Return to this page when done.",
		platform.FamilyAndroid: "The video %[1]q opened in a new tab.\n" +
			"1. Open the menu (three dots).\n" +
			"2. Tap \"Download\".\n" +
			"3. Find the file in your Downloads folder.",
		platform.FamilyDesktop: "The video %[1]q opened in a new tab.\n" +
			"1. Right-click the video.\n" +
			"2. Choose \"Save video as...\".",
	},
	manual: map[platform.Family]string{
		platform.FamilyIOS: "The video %[1]q could not be saved automatically.\n" +
			"1. Press and hold the video preview.\n" +
			"2. Tap \"Save to Photos\" or \"Share\".\n" +
			"3. If nothing appears, update iOS or open this page in Safari.",
		platform.FamilyAndroid: "The video %[1]q could not be saved automatically.\n" +
			"1. Press and hold the video preview.\n" +
			"2. Tap \"Download video\".\n" +
			"3. If nothing appears, open this page in Chrome.",
		platform.FamilyDesktop: "The video %[1]q could not be saved automatically.\n" +
			"1. Right-click the video preview.\n" +
			"2. Choose \"Save video as...\" and pick a folder.",
	},
	fileSave: map[platform.Family]string{
		platform.FamilyIOS: "The file %[1]q opened in a new tab.\n" +
			"1. Tap the Share button at the bottom of the screen.\n" +
			"2. Choose \"Save to Files\".\n" +
			"3. Return to this page when done.",
		platform.FamilyAndroid: "The file %[1]q opened in a new tab.\n" +
			"1. Open the menu (three dots).\n" +
			"2. Tap \"Download\".\n" +
			"3. Find the file in your Downloads folder.",
		platform.FamilyDesktop: "The file %[1]q opened in a new tab.\n" +
			"1. Press Ctrl+S (Cmd+S on a Mac).\n" +
			"2. Pick a folder and save.",
	},
	fileManual: map[platform.Family]string{
		platform.FamilyIOS: "The file %[1]q could not be saved automatically.\n" +
			"1. Copy the text shown on this page.\n" +
			"2. Paste it into Notes or a message to yourself.",
		platform.FamilyAndroid: "The file %[1]q could not be saved automatically.\n" +
			"1. Copy the text shown on this page.\n" +
			"2. Paste it into a notes app or a message to yourself.",
		platform.FamilyDesktop: "The file %[1]q could not be saved automatically.\n" +
			"1. Copy the text shown on this page.\n" +
			"2. Paste it into a text editor and save it as %[1]q.",
	},
}

var ruCatalog = catalog{
	title:    "Видео LeadCam",
	tagline:  "Видео создано с помощью LeadCam",
	form:     "Информация о ребенке:",
	parent:   "Родитель",
	child:    "Ребенок",
	age:      "Возраст",
	location: "Место съемки:",
	coords:   "Координаты",
	mapLink:  "Карта",

	leadHeading: "Карточка лида",
	created:     "Создано",

	save: map[platform.Family]string{
		platform.FamilyIOS: "Видео %[1]q открыто в новой вкладке.\n" +
			"1. Нажмите кнопку «Поделиться» внизу экрана.\n" +
			"2. Выберите «Сохранить видео», чтобы сохранить его в Фото.\n" +
			"3. Вернитесь на эту страницу.",
		platform.FamilyAndroid: "Видео %[1]q открыто в новой вкладке.\n" +
			"1. Откройте меню (три точки).\n" +
			"2. Нажмите «Скачать».\n" +
			"3. Файл появится в папке «Загрузки».",
		platform.FamilyDesktop: "Видео %[1]q открыто в новой вкладке.\n" +
			"1. Нажмите на видео правой кнопкой мыши.\n" +
			"2. Выберите «Сохранить видео как...».",
	},
	manual: map[platform.Family]string{
		platform.FamilyIOS: "Не удалось сохранить видео %[1]q автоматически.\n" +
			"1. Нажмите и удерживайте превью видео.\n" +
			"2. Выберите «Сохранить в Фото» или «Поделиться».\n" +
			"3. Если ничего не происходит, обновите iOS или откройте страницу в Safari.",
		platform.FamilyAndroid: "Не удалось сохранить видео %[1]q автоматически.\n" +
			"1. Нажмите и удерживайте превью видео.\n" +
			"2. Выберите «Скачать видео».\n" +
			"3. Если ничего не происходит, откройте страницу в Chrome.",
		platform.FamilyDesktop: "Не удалось сохранить видео %[1]q автоматически.\n" +
			"1. Нажмите на превью видео правой кнопкой мыши.\n" +
			"2. Выберите «Сохранить видео как...» и укажите папку.",
	},
	fileSave: map[platform.Family]string{
		platform.FamilyIOS: "Файл %[1]q открыт в новой вкладке.\n" +
			"1. Нажмите кнопку «Поделиться» внизу экрана.\n" +
			"2. Выберите «Сохранить в Файлы».\n" +
			"3. Вернитесь на эту страницу.",
		platform.FamilyAndroid: "Файл %[1]q открыт в новой вкладке.\n" +
			"1. Откройте меню (три точки).\n" +
			"2. Нажмите «Скачать».\n" +
			"3. Файл появится в папке «Загрузки».",
		platform.FamilyDesktop: "Файл %[1]q открыт в новой вкладке.\n" +
			"1. Нажмите Ctrl+S (Cmd+S на Mac).\n" +
			"2. Выберите папку и сохраните.",
	},
	fileManual: map[platform.Family]string{
		platform.FamilyIOS: "Не удалось сохранить файл %[1]q автоматически.\n" +
			"1. Скопируйте текст на этой странице.\n" +
			"2. Вставьте его в Заметки или отправьте себе сообщением.",
		platform.FamilyAndroid: "Не удалось сохранить файл %[1]q автоматически.\n" +
			"1. Скопируйте текст на этой странице.\n" +
			"2. Вставьте его в заметки или отправьте себе сообщением.",
		platform.FamilyDesktop: "Не удалось сохранить файл %[1]q автоматически.\n" +
			"1. Скопируйте текст на этой странице.\n" +
			"2. Вставьте его в текстовый редактор и сохраните как %[1]q.",
	},
}
