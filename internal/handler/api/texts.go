package api

// Conversation texts. The funnel speaks Russian to the client regardless of
// transport; button labels live next to the keyboards that carry them.
const (
	textStart = "Привет!\n" +
		"Я помогу быстро оформить заявку на обмен USDT ↔ наличные в Турции за несколько шагов:\n" +
		"➔ выберите направление обмена\n" +
		"➔ укажите сумму, которую отдаете\n" +
		"➔ выберите офис в Анталье или Стамбуле\n" +
		"➔ выберите желаемую дату сделки\n" +
		"Потом я покажу вам условия обмена и, если вы согласны, попрошу подтвердить их.\n" +
		"После наш менеджер свяжется с вами в Telegram для обсуждения деталей. " +
		"Если нужно быстро задать вопрос — пишите менеджеру напрямую @coinpointlara.\n\n" +
		"Нажмите кнопку ниже, чтобы начать 👇"

	textInfo = "Я помогу оформить заявку на обмен USDT ↔ наличные.\n" +
		"Если нужно быстро задать вопрос — пишите менеджеру @coinpointlara.\n\n" +
		"Нажмите «Создать заявку», чтобы начать."

	textEnterAmount = "Введите, пожалуйста, сумму, которую вы отдаёте."

	textAmountInvalid = "Введите число больше 0.\n" +
		"Можно использовать дробную часть (например: 1500 или 1500.50)."

	textOfficesUnavailable = "Сейчас не могу получить список офисов. " +
		"Попробуйте чуть позже или напишите менеджеру @coinpointlara."

	textChooseOffice = "Выберите, пожалуйста, где вам удобнее провести обмен"

	textChooseDate = "Когда вам удобно получить наличные? По умолчанию стоит сегодняшняя дата — " +
		"можете оставить её и нажать «Далее». Или нажмите на поле и введите желаемую дату\n" +
		"Формат: дд.мм.гггг"

	textDateInvalid = "Некорректная дата.\n" +
		"Введите в формате: дд.мм.гггг\n" +
		"Пример: %s"

	textDateInPast = "Дата не может быть в прошлом. Введите другую дату."

	textUsernameFound = "Ок, контакт в Telegram найден. Готовлю сводку…"

	textUsernamePrompt = "Похоже, у вас в Telegram не указан username – а он нужен, " +
		"чтобы продолжить наше общение. Введите, пожалуйста, ваш username"

	textUsernameInvalid = "Введите корректный username (латиница/цифры/_, без пробелов), можно с @"

	textUsernameThanks = "Спасибо! Готовлю сводку…"

	textRateUnavailable = "Сейчас не могу получить курс. " +
		"Попробуйте чуть позже или напишите менеджеру @coinpointlara."

	textRestart = "Хорошо, давайте поправим. Выберите направление перевода"

	textConfirmTemporary = "Заявку в CRM сейчас создать не удалось (временная ошибка). " +
		"Пожалуйста, нажмите «Да» ещё раз через минуту."

	textConfirmPermanent = "Заявку в CRM сейчас создать не удалось. " +
		"Пожалуйста, напишите менеджеру @coinpointlara — он поможет вручную."

	textGenericError = "Произошла ошибка. Попробуйте снова."

	textAlreadyCreated = "Заявка уже создана ✅ Менеджер свяжется с вами, как только возьмёт её в работу."

	textCreated = "Готово ✅ Заявка создана. Менеджер свяжется с вами в Telegram, " +
		"как только возьмёт её в работу."
)
