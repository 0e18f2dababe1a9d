// Package videohttp реализует JSON API видеотеки поверх локальной файловой системы.
// Основные эндпоинты:
//   - GET /api/videos?path=DIR — листинг каталога: подкаталоги и видео с тегами.
//   - GET /api/videos/stream/{path} — отдача файла с поддержкой Range (200/206/416).
//   - GET /api/videos/thumbnail/{path} — JPEG-превью; без ffmpeg — редирект на stream.
//   - PUT /api/videos/{id}/tags — замена тегов видео (id — base64 от пути).
//   - GET /api/tags — все теги по алфавиту.
//   - POST /api/videos/rename, /api/videos/delete, /api/videos/download — операции с файлами.
//   - GET /health — проверка живости.
package videohttp
