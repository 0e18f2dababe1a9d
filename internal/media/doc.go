// Package media отдаёт локальные видеофайлы по HTTP с поддержкой byte-range запросов.
//
// Open выполняет один stat на запрос и возвращает Response: статус 200 или 206,
// заголовки (Content-Length, Content-Range, ETag, Cache-Control) и ленивое тело,
// которое владеет файловым дескриптором. Тело однопроходное и закрывается в WriteTo
// на любом пути выхода: конец файла, ошибка записи или отмена контекста клиента.
package media
